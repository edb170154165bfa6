// Package editor rewrites byte ranges of source files.
package editor

import (
	"sort"

	"sbtup/internal/span"
)

// Edit replaces the bytes of Span with Text.
type Edit struct {
	Span span.Span
	Text string
}

// Apply returns original with every non-overlapping edit applied. Edits are
// ordered by start offset (stable for equal starts); an edit that overlaps one
// already accepted is discarded and returned in the second result.
//
// Every span must lie within original.
func Apply(original string, edits []Edit) (string, []Edit) {
	if len(edits) == 0 {
		return original, nil
	}
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	accepted := make([]Edit, 0, len(sorted))
	var discarded []Edit
	end := 0
	for _, e := range sorted {
		if len(accepted) > 0 && e.Span.Start < end {
			discarded = append(discarded, e)
			continue
		}
		accepted = append(accepted, e)
		end = e.Span.End
	}

	size := len(original)
	for _, e := range accepted {
		size += len(e.Text) - e.Span.Len()
	}

	buf := make([]byte, 0, size)
	pos := 0
	for _, e := range accepted {
		buf = append(buf, original[pos:e.Span.Start]...)
		buf = append(buf, e.Text...)
		pos = e.Span.End
	}
	buf = append(buf, original[pos:]...)
	return string(buf), discarded
}
