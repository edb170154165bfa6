package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"sbtup/internal/git"
	"sbtup/internal/planner"
)

// ImpactReport summarizes how uncommitted work overlaps an update plan.
type ImpactReport struct {
	// DirtyFiles are planned files with uncommitted changes.
	DirtyFiles []string
	// TouchedChanges are planned edits on lines that were changed.
	TouchedChanges []TouchedChange
}

// TouchedChange is a planned edit whose line has uncommitted changes.
type TouchedChange struct {
	Path   string
	Line   int
	Change planner.Change
}

// IsClean reports whether no planned file has uncommitted changes.
func (r *ImpactReport) IsClean() bool {
	return len(r.DirtyFiles) == 0
}

// Analyzer checks an update plan against uncommitted changes.
type Analyzer struct {
	plan *planner.UpdatePlan
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(plan *planner.UpdatePlan) *Analyzer {
	return &Analyzer{plan: plan}
}

// AnalyzeImpact matches changed files to planned files by absolute path and
// reports which planned edits sit on changed lines.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{}
	if a.plan == nil {
		return report, nil
	}

	byPath := make(map[string]git.ChangedFile, len(changes))
	for _, c := range changes {
		byPath[canonical(c.Path)] = c
	}

	for _, fp := range a.plan.Files {
		change, ok := byPath[canonical(fp.Path)]
		if !ok {
			continue
		}
		report.DirtyFiles = append(report.DirtyFiles, fp.Path)

		source, err := os.ReadFile(fp.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fp.Path, err)
		}
		for _, c := range fp.Changes {
			if isAffected(source, c, change) {
				report.TouchedChanges = append(report.TouchedChanges, TouchedChange{
					Path:   fp.Path,
					Line:   lineAt(source, c.Span.Start),
					Change: c,
				})
			}
		}
	}

	return report, nil
}

func isAffected(source []byte, c planner.Change, change git.ChangedFile) bool {
	first := lineAt(source, c.Span.Start)
	last := lineAt(source, c.Span.End)
	for line := first; line <= last; line++ {
		if change.Touches(line) {
			return true
		}
	}
	return false
}

// lineAt returns the 1-based line containing byte offset.
func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
