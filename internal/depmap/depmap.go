// Package depmap merges dependency records from every file of a project into one
// logical entry per (organization, artifact).
package depmap

import (
	"encoding/json"
	"sort"

	"sbtup/internal/extractor"
	"sbtup/internal/span"
	"sbtup/internal/version"
)

// Key identifies a logical dependency.
type Key struct {
	Organization string `json:"organization"`
	Artifact     string `json:"artifact"`
}

func (k Key) String() string {
	return k.Organization + ":" + k.Artifact
}

// Less orders keys by organization, then artifact.
func (k Key) Less(o Key) bool {
	if k.Organization != o.Organization {
		return k.Organization < o.Organization
	}
	return k.Artifact < o.Artifact
}

// Entry is the merged view of one dependency. Version is the highest version
// seen at any location; Locations holds every occurrence, including ones whose
// own literal was lower. Updating the entry rewrites all of them.
type Entry struct {
	Version   version.Version `json:"version"`
	Locations []span.Location `json:"locations"`
}

// Map is the project-wide dependency index. It is built by a single writer after
// per-file extraction completes.
type Map struct {
	entries map[Key]*Entry
}

// New creates an empty map.
func New() *Map {
	return &Map{entries: make(map[Key]*Entry)}
}

// FromFiles merges the records of every file, in order.
func FromFiles(files []extractor.FileDependencies) *Map {
	m := New()
	for _, f := range files {
		m.MergeAll(f.Records)
	}
	return m
}

// Merge adds one record. A new key takes the record's version; an existing key
// gains the location and keeps whichever version is greater.
func (m *Map) Merge(r extractor.Record) {
	key := Key{Organization: r.Organization, Artifact: r.Artifact}
	e, ok := m.entries[key]
	if !ok {
		m.entries[key] = &Entry{Version: r.Version, Locations: []span.Location{r.Location}}
		return
	}
	e.Locations = append(e.Locations, r.Location)
	if r.Version.Compare(e.Version) > 0 {
		e.Version = r.Version
	}
}

// MergeAll merges records in order.
func (m *Map) MergeAll(records []extractor.Record) {
	for _, r := range records {
		m.Merge(r)
	}
}

// Get returns a copy of the entry for key.
func (m *Map) Get(key Key) (Entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Version:   e.Version,
		Locations: append([]span.Location(nil), e.Locations...),
	}, true
}

// Len returns the number of logical entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Keys returns every key in sorted order.
func (m *Map) Keys() []Key {
	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Range calls fn for each entry in key order until fn returns false.
func (m *Map) Range(fn func(Key, Entry) bool) {
	for _, k := range m.Keys() {
		e, _ := m.Get(k)
		if !fn(k, e) {
			return
		}
	}
}

// LanguageVersion returns the project's language version, taken from the
// language-library entry when present.
func (m *Map) LanguageVersion() (version.Version, bool) {
	for _, artifact := range []string{extractor.Scala3Library, extractor.Scala2Library} {
		if e, ok := m.entries[Key{Organization: extractor.LanguageOrganization, Artifact: artifact}]; ok {
			return e.Version, true
		}
	}
	return version.Version{}, false
}

// Item pairs a key with its entry.
type Item struct {
	Key
	Entry
}

// Entries returns every entry in key order.
func (m *Map) Entries() []Item {
	out := make([]Item, 0, len(m.entries))
	m.Range(func(k Key, e Entry) bool {
		out = append(out, Item{Key: k, Entry: e})
		return true
	})
	return out
}

// MarshalJSON writes the entries as a key-ordered list.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Entries())
}
