package planner

import (
	"sort"

	"sbtup/internal/depmap"
	"sbtup/internal/editor"
	"sbtup/internal/selection"
	"sbtup/internal/span"
	"sbtup/internal/version"
)

// UpdatePlan lists the edits to make, grouped by file.
type UpdatePlan struct {
	Files     []FilePlan
	Conflicts []Conflict
}

// FilePlan is every edit planned for one file, ordered by offset.
type FilePlan struct {
	Path    string
	Changes []Change
}

// Change rewrites one location on behalf of one dependency.
type Change struct {
	Key  depmap.Key
	From version.Version
	To   version.Version
	Span span.Span
}

// Edit returns the editor edit for the change.
func (c Change) Edit() editor.Edit {
	return editor.Edit{Span: c.Span, Text: editor.Replacement(c.To)}
}

// Conflict is a location that two choices want to rewrite to different
// versions. The change planned first for the location wins when written.
type Conflict struct {
	Location span.Location
	Kept     depmap.Key
	Dropped  depmap.Key
	KeptTo   version.Version
	DropTo   version.Version
}

// BuildUpdatePlan turns selected updates into per-file plans sorted by path.
// Choices are taken in order; when several rewrite the same location to the
// same text only the first is planned.
func BuildUpdatePlan(choices []selection.Choice) *UpdatePlan {
	plan := &UpdatePlan{}
	byFile := make(map[string][]Change)
	planned := make(map[span.Location]Change)

	for _, c := range choices {
		for _, loc := range c.Locations {
			if prev, ok := planned[loc]; ok {
				if prev.To.Raw() != c.To.Raw() {
					plan.Conflicts = append(plan.Conflicts, Conflict{
						Location: loc,
						Kept:     prev.Key,
						Dropped:  c.Key,
						KeptTo:   prev.To,
						DropTo:   c.To,
					})
				}
				continue
			}
			ch := Change{Key: c.Key, From: c.From, To: c.To, Span: loc.Span}
			planned[loc] = ch
			byFile[loc.File] = append(byFile[loc.File], ch)
		}
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		changes := byFile[p]
		sort.SliceStable(changes, func(i, j int) bool {
			return changes[i].Span.Start < changes[j].Span.Start
		})
		plan.Files = append(plan.Files, FilePlan{Path: p, Changes: changes})
	}
	return plan
}

// IsEmpty reports whether the plan has no edits.
func (p *UpdatePlan) IsEmpty() bool {
	return p == nil || len(p.Files) == 0
}

// ChangeCount returns the number of planned edits.
func (p *UpdatePlan) ChangeCount() int {
	n := 0
	for _, f := range p.Files {
		n += len(f.Changes)
	}
	return n
}

// Updates converts the plan to editor updates, one per change.
func (p *UpdatePlan) Updates() []editor.Update {
	var out []editor.Update
	for _, f := range p.Files {
		for _, c := range f.Changes {
			out = append(out, editor.Update{
				Version:   c.To,
				Locations: []span.Location{{File: f.Path, Span: c.Span}},
			})
		}
	}
	return out
}

// Paths returns the files the plan touches.
func (p *UpdatePlan) Paths() []string {
	out := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		out = append(out, f.Path)
	}
	return out
}
