package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sbtup/internal/generator"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Show available updates per tier for every dependency",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		root := projectRoot(e.cfg, args)
		res, err := e.pipeline.Check(cmd.Context(), root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		updates := res.Entries.WithUpdates()
		if len(updates) == 0 {
			fmt.Fprintln(out, "✅ All dependencies are up to date.")
		} else if err := renderOptions(out, newStyles(colorEnabled(colorMode)), updates); err != nil {
			return err
		}

		if err := saveMarkdown(out, generator.NewMarkdownGenerator(root).CheckTable(updates)); err != nil {
			return err
		}
		return saveReport(out, res.Report)
	},
}

func init() {
	addOutputFlags(checkCmd)
}
