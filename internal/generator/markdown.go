// Package generator renders run results for humans: a JSON run report with
// per-stage metrics, and Markdown summaries suitable for a pull request body.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sbtup/internal/analysis"
	"sbtup/internal/planner"
	"sbtup/internal/selection"
	"sbtup/internal/version"
)

// MarkdownGenerator produces update summaries in Markdown format.
type MarkdownGenerator struct {
	// Root is stripped from file paths when set.
	Root string
}

func NewMarkdownGenerator(root string) *MarkdownGenerator {
	return &MarkdownGenerator{Root: root}
}

func (g *MarkdownGenerator) rel(path string) string {
	if g.Root == "" {
		return path
	}
	if r, err := filepath.Rel(g.Root, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}

// CheckTable renders the options of every entry with updates. The current tier
// of each entry is shown in bold.
func (g *MarkdownGenerator) CheckTable(entries []selection.Entry) string {
	var b strings.Builder
	b.WriteString("## Available updates\n\n")
	if len(entries) == 0 {
		b.WriteString("All dependencies are up to date.\n")
		return b.String()
	}

	b.WriteString("| Dependency | Current |")
	for _, t := range version.Tiers {
		fmt.Fprintf(&b, " %s |", t)
	}
	b.WriteString("\n|---|---|")
	for range version.Tiers {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "| `%s` | %s |", e.Key, e.Version.Raw())
		for _, t := range version.Tiers {
			v := e.Options.Get(t)
			switch {
			case v == nil:
				b.WriteString(" |")
			case t == e.Tier:
				fmt.Fprintf(&b, " **%s** |", v.Raw())
			default:
				fmt.Fprintf(&b, " %s |", v.Raw())
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// PlanSummary renders an update plan: one row per dependency with the files it
// touches, then any conflicts and uncommitted-change warnings.
func (g *MarkdownGenerator) PlanSummary(plan *planner.UpdatePlan, impact *analysis.ImpactReport) string {
	var b strings.Builder
	b.WriteString("## Dependency updates\n\n")
	if plan.IsEmpty() {
		b.WriteString("Nothing to update.\n")
		return b.String()
	}

	type row struct {
		key, from, to string
		files         map[string]bool
	}
	rows := map[string]*row{}
	for _, f := range plan.Files {
		for _, c := range f.Changes {
			k := c.Key.String()
			r, ok := rows[k]
			if !ok {
				r = &row{key: k, from: c.From.Raw(), to: c.To.Raw(), files: map[string]bool{}}
				rows[k] = r
			}
			r.files[g.rel(f.Path)] = true
		}
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("| Dependency | From | To | Files |\n|---|---|---|---|\n")
	for _, k := range keys {
		r := rows[k]
		files := make([]string, 0, len(r.files))
		for f := range r.files {
			files = append(files, "`"+f+"`")
		}
		sort.Strings(files)
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", r.key, r.from, r.to, strings.Join(files, ", "))
	}

	if len(plan.Conflicts) > 0 {
		b.WriteString("\n### Conflicts\n\n")
		for _, c := range plan.Conflicts {
			fmt.Fprintf(&b, "- `%s:%s` kept %s for `%s`, dropped %s for `%s`\n",
				g.rel(c.Location.File), c.Location.Span, c.KeptTo.Raw(), c.Kept, c.DropTo.Raw(), c.Dropped)
		}
	}

	if impact != nil && !impact.IsClean() {
		b.WriteString("\n### Uncommitted changes\n\n")
		for _, f := range impact.DirtyFiles {
			fmt.Fprintf(&b, "- `%s`\n", g.rel(f))
		}
		for _, t := range impact.TouchedChanges {
			fmt.Fprintf(&b, "  - line %d of `%s` (`%s`) was edited locally\n", t.Line, g.rel(t.Path), t.Change.Key)
		}
	}
	return b.String()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
