// Package version parses dependency version strings into a comparable form and
// computes upgrade candidates per tier.
package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// PreReleaseKind orders pre-release tags: Other < M < RC.
type PreReleaseKind int

const (
	PreOther PreReleaseKind = iota + 1
	PreM
	PreRC
)

// PreRelease is the suffix after the first '-' of a semantic version.
type PreRelease struct {
	Kind  PreReleaseKind
	Num   uint32 // RC and M only
	Label string // Other only
}

// RC returns the pre-release RC<n>.
func RC(n uint32) *PreRelease { return &PreRelease{Kind: PreRC, Num: n} }

// M returns the milestone pre-release M<n>.
func M(n uint32) *PreRelease { return &PreRelease{Kind: PreM, Num: n} }

// OtherPre returns a free-form pre-release tag such as "alpha.1".
func OtherPre(label string) *PreRelease { return &PreRelease{Kind: PreOther, Label: label} }

func (p PreRelease) String() string {
	switch p.Kind {
	case PreRC:
		return fmt.Sprintf("RC%d", p.Num)
	case PreM:
		return fmt.Sprintf("M%d", p.Num)
	default:
		return p.Label
	}
}

// Compare orders RC above M above any other tag; RC and M compare by number and
// other tags lexicographically.
func (p PreRelease) Compare(o PreRelease) int {
	if p.Kind != o.Kind {
		return cmp.Compare(p.Kind, o.Kind)
	}
	if p.Kind == PreOther {
		return strings.Compare(p.Label, o.Label)
	}
	return cmp.Compare(p.Num, o.Num)
}

// Version is either a semantic version or an opaque string that failed to parse.
// The zero value is the semantic version 0.0.0.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
	Pre   *PreRelease

	other bool
	raw   string
}

// SemVer builds a semantic version.
func SemVer(major, minor, patch uint32, pre *PreRelease) Version {
	v := Version{Major: major, Minor: minor, Patch: patch, Pre: pre}
	v.raw = v.String()
	return v
}

// Other builds an opaque version.
func Other(raw string) Version {
	return Version{other: true, raw: raw}
}

// Parse reads `major.minor[.patch][-pre]`. Anything else, including four or more
// components or non-numeric parts, becomes an Other version holding the text.
func Parse(text string) Version {
	v, ok := parseSemVer(text)
	if !ok {
		return Other(text)
	}
	v.raw = text
	return v
}

func parseSemVer(text string) (Version, bool) {
	parts := strings.SplitN(text, ".", 3)
	var v Version
	var last string

	switch len(parts) {
	case 2:
		major, ok := parseNum(parts[0])
		if !ok {
			return Version{}, false
		}
		v.Major = major
		last = parts[1]
	case 3:
		major, ok := parseNum(parts[0])
		if !ok {
			return Version{}, false
		}
		minor, ok := parseNum(parts[1])
		if !ok {
			return Version{}, false
		}
		v.Major, v.Minor = major, minor
		last = parts[2]
	default:
		return Version{}, false
	}

	num, pre, hasPre := strings.Cut(last, "-")
	n, ok := parseNum(num)
	if !ok {
		return Version{}, false
	}
	if len(parts) == 2 {
		v.Minor = n
	} else {
		v.Patch = n
	}
	if hasPre {
		v.Pre = parsePreRelease(pre)
	}
	return v, true
}

func parsePreRelease(s string) *PreRelease {
	if n, ok := strings.CutPrefix(s, "RC"); ok {
		if num, ok := parseNum(n); ok {
			return RC(num)
		}
	} else if n, ok := strings.CutPrefix(s, "M"); ok {
		if num, ok := parseNum(n); ok {
			return M(num)
		}
	}
	return OtherPre(s)
}

func parseNum(s string) (uint32, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// IsSemVer reports whether v parsed as a semantic version.
func (v Version) IsSemVer() bool { return !v.other }

// IsPreRelease reports whether v carries a pre-release tag.
func (v Version) IsPreRelease() bool { return !v.other && v.Pre != nil }

// Raw returns the text the version was parsed from.
func (v Version) Raw() string {
	if v.raw == "" && !v.other {
		return v.String()
	}
	return v.raw
}

// String renders a semantic version canonically as major.minor.patch[-pre];
// Other versions render as their original text.
func (v Version) String() string {
	if v.other {
		return v.raw
	}
	if v.Pre != nil {
		return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Pre)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1. Every semantic version sorts below every Other
// version; Other versions compare lexicographically. Between semantic versions a
// release sorts above any pre-release of the same major.minor.patch.
func (v Version) Compare(o Version) int {
	switch {
	case v.other && o.other:
		return strings.Compare(v.raw, o.raw)
	case v.other:
		return 1
	case o.other:
		return -1
	}

	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, o.Patch); c != 0 {
		return c
	}

	switch {
	case v.Pre == nil && o.Pre == nil:
		return 0
	case v.Pre == nil:
		return 1
	case o.Pre == nil:
		return -1
	}
	return v.Pre.Compare(*o.Pre)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o hold the same version, ignoring how it was spelled.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// MarshalText writes the original text.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.Raw()), nil
}

// UnmarshalText parses text with Parse.
func (v *Version) UnmarshalText(text []byte) error {
	*v = Parse(string(text))
	return nil
}
