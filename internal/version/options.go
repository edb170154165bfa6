package version

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is one of the four upgrade slots computed per dependency.
type Tier int

const (
	Major Tier = iota
	Minor
	Patch
	PreReleaseTier
)

// Tiers lists every tier in display order.
var Tiers = []Tier{Major, Minor, Patch, PreReleaseTier}

func (t Tier) String() string {
	switch t {
	case Major:
		return "Major"
	case Minor:
		return "Minor"
	case Patch:
		return "Patch"
	case PreReleaseTier:
		return "PreRelease"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Next cycles Major → Minor → Patch → PreRelease → Major.
func (t Tier) Next() Tier {
	return (t + 1) % 4
}

// Prev cycles in the opposite direction of Next.
func (t Tier) Prev() Tier {
	return (t + 3) % 4
}

// ParseTier accepts a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	case "prerelease", "pre-release", "pre":
		return PreReleaseTier, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// UpdateOptions holds the best candidate per tier; nil means no candidate.
type UpdateOptions struct {
	Major      *Version `json:"major,omitempty"`
	Minor      *Version `json:"minor,omitempty"`
	Patch      *Version `json:"patch,omitempty"`
	PreRelease *Version `json:"pre_release,omitempty"`
}

// Get returns the candidate for tier.
func (o *UpdateOptions) Get(t Tier) *Version {
	if o == nil {
		return nil
	}
	switch t {
	case Major:
		return o.Major
	case Minor:
		return o.Minor
	case Patch:
		return o.Patch
	case PreReleaseTier:
		return o.PreRelease
	}
	return nil
}

// Has reports whether tier has a candidate.
func (o *UpdateOptions) Has(t Tier) bool {
	return o.Get(t) != nil
}

// IsEmpty reports whether no tier has a candidate.
func (o *UpdateOptions) IsEmpty() bool {
	return o == nil || (o.Major == nil && o.Minor == nil && o.Patch == nil && o.PreRelease == nil)
}

// DefaultTier is the first populated tier in Major, Minor, Patch order, falling
// back to PreRelease.
func (o *UpdateOptions) DefaultTier() Tier {
	for _, t := range []Tier{Major, Minor, Patch} {
		if o.Has(t) {
			return t
		}
	}
	return PreReleaseTier
}

// ComputeUpdateOptions picks, for each tier, the highest available semantic
// version newer than current. A current version that is not semantic is
// compared as 0.0.0. Each candidate lands in the first tier it qualifies for:
// a stable candidate with a higher major is a major option even when it would
// also be a minor one. A pre-release option survives only when it is newer than
// every stable option. Returns nil when there is nothing to offer.
func ComputeUpdateOptions(current Version, available []Version) *UpdateOptions {
	if !current.IsSemVer() {
		current = SemVer(0, 0, 0, nil)
	}

	var candidates []Version
	for _, v := range available {
		if v.IsSemVer() && v.Compare(current) > 0 {
			candidates = append(candidates, v)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Less(candidates[j])
	})

	opts := &UpdateOptions{}
	for i := range candidates {
		v := candidates[i]
		stable := v.Pre == nil
		switch {
		case v.Major > current.Major && stable:
			opts.Major = &v
		case v.Minor > current.Minor && stable:
			opts.Minor = &v
		case v.Patch > current.Patch && stable:
			opts.Patch = &v
		case !stable:
			opts.PreRelease = &v
		}
	}

	if pre := opts.PreRelease; pre != nil {
		for _, stable := range []*Version{opts.Major, opts.Minor, opts.Patch} {
			if stable != nil && pre.Compare(*stable) <= 0 {
				opts.PreRelease = nil
				break
			}
		}
	}

	if opts.IsEmpty() {
		return nil
	}
	return opts
}
