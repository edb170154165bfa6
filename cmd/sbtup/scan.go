package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scanJSON string

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "List the dependencies declared in an sbt build",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		root := projectRoot(e.cfg, args)
		fmt.Fprintf(cmd.ErrOrStderr(), "📂 Scanning directory: %s\n", root)

		snap, err := e.pipeline.Scan(cmd.Context(), root)
		if err != nil {
			return err
		}

		if scanJSON != "" {
			if err := e.indexer.SaveSnapshot(snap, scanJSON); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "💾 Saved to %s\n", scanJSON)
		}

		out := cmd.OutOrStdout()
		for _, item := range snap.Map.Entries() {
			locs := make([]string, 0, len(item.Locations))
			for _, l := range item.Locations {
				locs = append(locs, l.String())
			}
			fmt.Fprintf(out, "%s %s  %s\n", item.Key, item.Version.Raw(), strings.Join(locs, ", "))
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanJSON, "json", "", "Also write the scan result as JSON to this file")
}
