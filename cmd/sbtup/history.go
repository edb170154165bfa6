package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sbtup/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously applied updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.History.Path == "" {
			return fmt.Errorf("no history database configured: set history.path or --history-db")
		}

		store, err := storage.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()

		records, err := store.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No updates recorded.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  #%d  %s:%s %s -> %s  %s\n",
				r.AppliedAt.Format(time.DateTime), r.RunID, r.Organization, r.Artifact, r.FromVersion, r.ToVersion, r.File)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of updates to show (0 for all)")
}
