package span

import "fmt"

// Span is a half-open byte range [Start, End) into one source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New creates a span from byte offsets.
func New(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Location binds a span to the file it occurs in. It identifies one exact textual
// occurrence of a version literal or of a constant's right-hand side.
type Location struct {
	File string `json:"file"`
	Span Span   `json:"span"`
}

// At creates a location in file covering [start, end).
func At(file string, start, end int) Location {
	return Location{File: file, Span: New(start, end)}
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d:%d]", l.File, l.Span.Start, l.Span.End)
}
