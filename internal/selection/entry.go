// Package selection tracks which dependency updates the user has chosen and at
// which tier.
package selection

import (
	"sort"

	"sbtup/internal/depmap"
	"sbtup/internal/span"
	"sbtup/internal/version"
)

// Entry is the selection state of one logical dependency.
type Entry struct {
	Key       depmap.Key
	Version   version.Version
	Locations []span.Location
	Options   *version.UpdateOptions
	Tier      version.Tier
	Selected  bool
}

// Candidate returns the version offered at the entry's current tier.
func (e *Entry) Candidate() *version.Version {
	return e.Options.Get(e.Tier)
}

// HasUpdate reports whether any tier offers a version.
func (e *Entry) HasUpdate() bool {
	return !e.Options.IsEmpty()
}

func (e *Entry) sharesLocation(locs []span.Location) bool {
	for _, a := range e.Locations {
		for _, b := range locs {
			if a == b {
				return true
			}
		}
	}
	return false
}

func (e *Entry) clone() Entry {
	c := *e
	c.Locations = append([]span.Location(nil), e.Locations...)
	return c
}

// Choice is a selected update.
type Choice struct {
	Key       depmap.Key
	From      version.Version
	To        version.Version
	Locations []span.Location
}

// EntryMap holds one Entry per dependency key.
type EntryMap struct {
	entries map[depmap.Key]*Entry
}

// FromDependencyMap creates unselected entries with no options for every
// dependency in m.
func FromDependencyMap(m *depmap.Map) *EntryMap {
	em := &EntryMap{entries: make(map[depmap.Key]*Entry, m.Len())}
	for _, item := range m.Entries() {
		em.entries[item.Key] = &Entry{
			Key:       item.Key,
			Version:   item.Version,
			Locations: item.Locations,
			Tier:      version.Major,
		}
	}
	return em
}

// Len returns the number of entries.
func (m *EntryMap) Len() int {
	return len(m.entries)
}

// Keys returns every key in sorted order.
func (m *EntryMap) Keys() []depmap.Key {
	keys := make([]depmap.Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Get returns a copy of the entry for key.
func (m *EntryMap) Get(key depmap.Key) (Entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// AddVersions computes update options from the available versions of each
// key and moves the entry to its default tier. Keys without an entry are
// ignored, as are keys whose versions offer no update.
func (m *EntryMap) AddVersions(available map[depmap.Key][]version.Version) {
	for key, versions := range available {
		e, ok := m.entries[key]
		if !ok {
			continue
		}
		opts := version.ComputeUpdateOptions(e.Version, versions)
		if opts == nil {
			continue
		}
		e.Options = opts
		e.Tier = opts.DefaultTier()
	}
}

// WithUpdates returns the entries that have at least one option, sorted by key.
func (m *EntryMap) WithUpdates() []Entry {
	var out []Entry
	for _, k := range m.Keys() {
		if e := m.entries[k]; e.HasUpdate() {
			out = append(out, e.clone())
		}
	}
	return out
}

// forEachShared calls fn on every entry that shares a location with key's
// entry, including that entry itself.
func (m *EntryMap) forEachShared(key depmap.Key, fn func(*Entry)) {
	target, ok := m.entries[key]
	if !ok {
		return
	}
	locs := append([]span.Location(nil), target.Locations...)
	for _, e := range m.entries {
		if e == target || e.sharesLocation(locs) {
			fn(e)
		}
	}
}

// Toggle flips the selection of key and of every entry sharing one of its
// locations, so that updates written through a shared constant move together.
func (m *EntryMap) Toggle(key depmap.Key) {
	m.forEachShared(key, func(e *Entry) { e.Selected = !e.Selected })
}

// Select marks key as selected.
func (m *EntryMap) Select(key depmap.Key) {
	if e, ok := m.entries[key]; ok {
		e.Selected = true
	}
}

// Deselect clears the selection of key.
func (m *EntryMap) Deselect(key depmap.Key) {
	if e, ok := m.entries[key]; ok {
		e.Selected = false
	}
}

// ToggleAll deselects every entry with updates when all of them are selected,
// and selects all of them otherwise.
func (m *EntryMap) ToggleAll() {
	updates := m.WithUpdates()
	all := true
	for _, e := range updates {
		if !e.Selected {
			all = false
			break
		}
	}
	for _, e := range updates {
		if all {
			m.Deselect(e.Key)
		} else {
			m.Select(e.Key)
		}
	}
}

// NextTier moves key, and entries sharing its locations, to the next tier that
// has a candidate.
func (m *EntryMap) NextTier(key depmap.Key) {
	m.changeTier(key, version.Tier.Next)
}

// PrevTier moves key, and entries sharing its locations, to the previous tier
// that has a candidate.
func (m *EntryMap) PrevTier(key depmap.Key) {
	m.changeTier(key, version.Tier.Prev)
}

func (m *EntryMap) changeTier(key depmap.Key, step func(version.Tier) version.Tier) {
	m.forEachShared(key, func(e *Entry) {
		if !e.HasUpdate() {
			return
		}
		for i := 0; i < len(version.Tiers); i++ {
			e.Tier = step(e.Tier)
			if e.Options.Has(e.Tier) {
				return
			}
		}
	})
}

// SetTier moves key to tier. It reports false, leaving the entry unchanged,
// when the tier has no candidate.
func (m *EntryMap) SetTier(key depmap.Key, tier version.Tier) bool {
	e, ok := m.entries[key]
	if !ok || !e.Options.Has(tier) {
		return false
	}
	e.Tier = tier
	return true
}

// Selected returns the chosen update of every selected entry that has a
// candidate at its current tier, sorted by key.
func (m *EntryMap) Selected() []Choice {
	var out []Choice
	for _, k := range m.Keys() {
		e := m.entries[k]
		if !e.Selected {
			continue
		}
		to := e.Candidate()
		if to == nil {
			continue
		}
		out = append(out, Choice{
			Key:       k,
			From:      e.Version,
			To:        *to,
			Locations: append([]span.Location(nil), e.Locations...),
		})
	}
	return out
}
