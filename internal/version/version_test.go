package version

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"1.0.0", SemVer(1, 0, 0, nil)},
		{"1.0.0-RC4", SemVer(1, 0, 0, RC(4))},
		{"1.5.5-M1", SemVer(1, 5, 5, M(1))},
		{"1.1.1-alpha", SemVer(1, 1, 1, OtherPre("alpha"))},
		{"1.1.1-alpha.5", SemVer(1, 1, 1, OtherPre("alpha.5"))},
		{"1.1.1-beta.5", SemVer(1, 1, 1, OtherPre("beta.5"))},
		{"1.1.1-RCx", SemVer(1, 1, 1, OtherPre("RCx"))},
		{"1.1.1-M", SemVer(1, 1, 1, OtherPre("M"))},
		{"4.5.5.5", Other("4.5.5.5")},
		{"i-hate-semver", Other("i-hate-semver")},
		{"1", Other("1")},
		{"", Other("")},
		{"1.x.0", Other("1.x.0")},
		{"-1.0.0", Other("-1.0.0")},
		{"1.0.0-", SemVer(1, 0, 0, OtherPre(""))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParse_TwoComponents(t *testing.T) {
	v := Parse("2.0-RC4")

	require.True(t, v.IsSemVer())
	assert.Equal(t, uint32(2), v.Major)
	assert.Equal(t, uint32(0), v.Minor)
	assert.Equal(t, uint32(0), v.Patch)
	assert.Equal(t, RC(4), v.Pre)
	assert.Equal(t, "2.0.0-RC4", v.String())
	assert.Equal(t, "2.0-RC4", v.Raw())
	assert.True(t, v.Equal(SemVer(2, 0, 0, RC(4))))
}

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{"0.0.0", "1.2.3", "10.20.30", "1.0.0-RC1", "3.1.0-M12", "2.13.14"} {
		t.Run(s, func(t *testing.T) {
			v := Parse(s)
			assert.Equal(t, v, Parse(v.String()))
			assert.Equal(t, s, v.String())
		})
	}
}

func sortedStrings(in []string) []string {
	vs := make([]Version, len(in))
	for i, s := range in {
		vs[i] = Parse(s)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Raw()
	}
	return out
}

func TestVersion_Ordering(t *testing.T) {
	t.Run("Release versions", func(t *testing.T) {
		assert.Equal(t,
			[]string{"0.0.5", "1.1.1", "2.0.0"},
			sortedStrings([]string{"1.1.1", "2.0.0", "0.0.5"}))
	})

	t.Run("Pre-releases", func(t *testing.T) {
		got := sortedStrings([]string{
			"0.5.0", "0.1.0-RC12", "0.1.0-RC13", "1.0.0", "1.0.0-RC2", "1.0.0-RC1",
			"1.0.0-M1", "1.0.0-alpha", "1.0.0-alpha.1", "2.0.0", "2.1.0", "2.0.1",
		})
		assert.Equal(t, []string{
			"0.1.0-RC12", "0.1.0-RC13", "0.5.0", "1.0.0-alpha", "1.0.0-alpha.1",
			"1.0.0-M1", "1.0.0-RC1", "1.0.0-RC2", "1.0.0", "2.0.0", "2.0.1", "2.1.0",
		}, got)
	})

	t.Run("Other sorts above every semantic version", func(t *testing.T) {
		assert.True(t, Parse("999.0.0").Less(Parse("0.0.0.1")))
		assert.True(t, Parse("abc").Less(Parse("abd")))
		assert.Equal(t, 1, Parse("nightly").Compare(Parse("1.0.0")))
	})
}

func TestPreRelease_Ordering(t *testing.T) {
	pres := []*PreRelease{RC(2), OtherPre("alpha.1"), M(1), RC(1), OtherPre("alpha")}
	sort.Slice(pres, func(i, j int) bool { return pres[i].Compare(*pres[j]) < 0 })

	assert.Equal(t, []*PreRelease{OtherPre("alpha"), OtherPre("alpha.1"), M(1), RC(1), RC(2)}, pres)
}

func TestVersion_TotalOrder(t *testing.T) {
	inputs := []string{
		"0.0.0", "1.0.0", "1.0.0-RC1", "1.0.0-RC2", "1.0.0-M1", "1.0.0-M3", "1.0.0-alpha",
		"1.0", "1.0-RC1", "2.1.3", "10.0.0", "4.5.5.5", "latest", "abc", "1.0.0-beta",
	}
	vs := make([]Version, len(inputs))
	for i, s := range inputs {
		vs[i] = Parse(s)
	}

	for _, a := range vs {
		assert.Equal(t, 0, a.Compare(a), "reflexive: %s", a)
		for _, b := range vs {
			assert.Equal(t, -b.Compare(a), a.Compare(b), "antisymmetric: %s %s", a, b)
			for _, c := range vs {
				if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
					assert.LessOrEqual(t, a.Compare(c), 0, "transitive: %s %s %s", a, b, c)
				}
			}
		}
	}
}

func TestVersion_Text(t *testing.T) {
	var v Version
	require.NoError(t, v.UnmarshalText([]byte("1.2-M3")))
	assert.True(t, v.Equal(SemVer(1, 2, 0, M(3))))

	out, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.2-M3", string(out))

	assert.Equal(t, "0.0.0", Version{}.Raw())
}
