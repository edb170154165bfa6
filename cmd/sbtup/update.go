package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sbtup/internal/depmap"
	"sbtup/internal/generator"
	"sbtup/internal/pipeline"
)

var (
	updateTier         string
	updateOnly         []string
	updateDryRun       bool
	updateRequireClean bool
)

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Rewrite version literals to the selected updates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		only, err := parseOnly(updateOnly)
		if err != nil {
			return err
		}

		e, err := setup(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		root := projectRoot(e.cfg, args)
		res, err := e.pipeline.Update(cmd.Context(), pipeline.UpdateRequest{
			Root:         root,
			Tier:         updateTier,
			Only:         only,
			DryRun:       updateDryRun,
			RequireClean: updateRequireClean,
		})
		if res == nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Plan != nil {
			for _, f := range res.Plan.Files {
				for _, c := range f.Changes {
					fmt.Fprintf(out, "%s %s -> %s  %s[%s]\n", c.Key, c.From.Raw(), c.To.Raw(), f.Path, c.Span)
				}
			}
			if mdErr := saveMarkdown(out, generator.NewMarkdownGenerator(root).PlanSummary(res.Plan, res.Impact)); mdErr != nil {
				return errors.Join(err, mdErr)
			}
		}
		if repErr := saveReport(out, res.Report); repErr != nil {
			return errors.Join(err, repErr)
		}
		return err
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTier, "tier", pipeline.TierAuto, "Tier to apply: auto, major, minor, patch, prerelease")
	updateCmd.Flags().StringSliceVar(&updateOnly, "only", nil, "Limit the update to these dependencies (org:artifact)")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Print the plan without writing files")
	updateCmd.Flags().BoolVar(&updateRequireClean, "require-clean", false, "Refuse to edit files with uncommitted changes")
	addOutputFlags(updateCmd)
}

// parseOnly parses org:artifact pairs.
func parseOnly(values []string) ([]depmap.Key, error) {
	keys := make([]depmap.Key, 0, len(values))
	for _, v := range values {
		org, artifact, ok := strings.Cut(strings.TrimSpace(v), ":")
		if !ok || org == "" || artifact == "" {
			return nil, fmt.Errorf("invalid dependency %q: expected org:artifact", v)
		}
		keys = append(keys, depmap.Key{Organization: org, Artifact: artifact})
	}
	return keys, nil
}
