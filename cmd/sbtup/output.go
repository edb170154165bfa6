package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sbtup/internal/generator"
)

var (
	reportPath   string
	markdownPath string
)

// addOutputFlags registers the report and markdown flags on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a JSON run report to this file")
	cmd.Flags().StringVar(&markdownPath, "markdown", "", "Write a Markdown summary to this file")
}

func saveReport(w io.Writer, rep *generator.RunReport) error {
	if reportPath == "" || rep == nil {
		return nil
	}
	if err := rep.Save(reportPath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	fmt.Fprintf(w, "🧾 Run report saved to %s\n", reportPath)
	return nil
}

func saveMarkdown(w io.Writer, content string) error {
	if markdownPath == "" {
		return nil
	}
	if err := generator.WriteFile(markdownPath, content); err != nil {
		return fmt.Errorf("failed to save markdown: %w", err)
	}
	fmt.Fprintf(w, "📄 Markdown summary saved to %s\n", markdownPath)
	return nil
}
