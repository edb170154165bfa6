package depmap

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbtup/internal/extractor"
	"sbtup/internal/span"
	"sbtup/internal/version"
)

func rec(org, artifact, v string, loc span.Location) extractor.Record {
	return extractor.Record{Organization: org, Artifact: artifact, Version: version.Parse(v), Location: loc}
}

func TestMap_Merge(t *testing.T) {
	m := New()
	a := span.At("build.sbt", 10, 17)
	b := span.At("project/Deps.scala", 30, 37)
	c := span.At("build.sbt", 50, 57)

	m.Merge(rec("dev.zio", "zio", "2.0.0", a))
	m.Merge(rec("dev.zio", "zio", "2.1.0", b))
	m.Merge(rec("dev.zio", "zio", "1.0.0", c))
	m.Merge(rec("org.postgresql", "postgresql", "42.5.1", c))

	require.Equal(t, 2, m.Len())

	e, ok := m.Get(Key{"dev.zio", "zio"})
	require.True(t, ok)
	assert.Equal(t, "2.1.0", e.Version.Raw())
	assert.Equal(t, []span.Location{a, b, c}, e.Locations)

	assert.Equal(t, []Key{{"dev.zio", "zio"}, {"org.postgresql", "postgresql"}}, m.Keys())

	_, ok = m.Get(Key{"nope", "nope"})
	assert.False(t, ok)
}

func TestMap_OtherVersionWins(t *testing.T) {
	m := New()
	m.Merge(rec("g", "a", "9.9.9", span.At("f", 0, 1)))
	m.Merge(rec("g", "a", "nightly", span.At("f", 2, 3)))
	m.Merge(rec("g", "a", "10.0.0", span.At("f", 4, 5)))

	e, _ := m.Get(Key{"g", "a"})
	assert.Equal(t, "nightly", e.Version.Raw())

	m.Merge(rec("g", "a", "snapshot", span.At("f", 6, 7)))
	e, _ = m.Get(Key{"g", "a"})
	assert.Equal(t, "snapshot", e.Version.Raw())
	assert.Len(t, e.Locations, 4)
}

func TestMap_MergeOrderIndependent(t *testing.T) {
	records := []extractor.Record{
		rec("g", "a", "1.0.0", span.At("x", 0, 1)),
		rec("g", "a", "1.2.0-RC1", span.At("x", 1, 2)),
		rec("g", "a", "1.1.0", span.At("y", 0, 1)),
		rec("g", "b", "0.1", span.At("y", 3, 4)),
		rec("g", "b", "0.1.0", span.At("z", 3, 4)),
		rec("h", "c", "weird", span.At("z", 5, 6)),
		rec("h", "c", "3.0.0", span.At("z", 7, 8)),
	}
	baseline := New()
	baseline.MergeAll(records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]extractor.Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		m := New()
		m.MergeAll(shuffled)

		require.Equal(t, baseline.Keys(), m.Keys())
		for _, k := range baseline.Keys() {
			want, _ := baseline.Get(k)
			got, _ := m.Get(k)
			assert.True(t, want.Version.Equal(got.Version), "%s: %s vs %s", k, want.Version, got.Version)
			assert.ElementsMatch(t, want.Locations, got.Locations)
		}
	}
}

func TestMap_LanguageVersion(t *testing.T) {
	m := FromFiles([]extractor.FileDependencies{
		{Path: "build.sbt", Records: []extractor.Record{
			rec(extractor.LanguageOrganization, extractor.Scala3Library, "3.4.2", span.At("build.sbt", 1, 8)),
		}},
	})

	v, ok := m.LanguageVersion()
	require.True(t, ok)
	assert.Equal(t, "3.4.2", v.Raw())

	_, ok = New().LanguageVersion()
	assert.False(t, ok)
}

func TestMap_MarshalJSON(t *testing.T) {
	m := New()
	m.Merge(rec("dev.zio", "zio", "2.0.0", span.At("build.sbt", 10, 17)))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"organization": "dev.zio",
		"artifact": "zio",
		"version": "2.0.0",
		"locations": [{"file": "build.sbt", "span": {"start": 10, "end": 17}}]
	}]`, string(data))
}
