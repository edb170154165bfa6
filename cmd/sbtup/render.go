package main

import (
	"io"
	"strings"

	"github.com/fatih/color"

	"sbtup/internal/selection"
	"sbtup/internal/version"
)

// styles holds color formatters for table output.
type styles struct {
	heading *color.Color
	key     *color.Color
	current *color.Color
	tier    map[version.Tier]*color.Color
	muted   *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		heading: color.New(color.Bold),
		key:     color.New(color.FgHiWhite),
		current: color.New(color.FgHiBlack),
		tier: map[version.Tier]*color.Color{
			version.Major:          color.New(color.FgRed),
			version.Minor:          color.New(color.FgYellow),
			version.Patch:          color.New(color.FgGreen),
			version.PreReleaseTier: color.New(color.FgMagenta),
		},
		muted: color.New(color.Faint),
	}

	if !enabled {
		s.heading.DisableColor()
		s.key.DisableColor()
		s.current.DisableColor()
		s.muted.DisableColor()
		for _, c := range s.tier {
			c.DisableColor()
		}
	} else {
		s.heading.EnableColor()
		s.key.EnableColor()
		s.current.EnableColor()
		s.muted.EnableColor()
		for _, c := range s.tier {
			c.EnableColor()
		}
	}
	return s
}

// colorEnabled resolves --color. In auto mode color follows stdout being a
// terminal and NO_COLOR, as detected by the color package.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return !color.NoColor
}

type cell struct {
	text  string
	style *color.Color
}

// renderOptions writes one row per entry with updates: the key, the current
// version and the candidate of each tier. The entry's current tier is marked
// with a star.
func renderOptions(w io.Writer, st *styles, entries []selection.Entry) error {
	header := []cell{{"DEPENDENCY", st.heading}, {"CURRENT", st.heading}}
	for _, t := range version.Tiers {
		header = append(header, cell{strings.ToUpper(t.String()), st.heading})
	}
	rows := [][]cell{header}

	for _, e := range entries {
		row := []cell{{e.Key.String(), st.key}, {e.Version.Raw(), st.current}}
		for _, t := range version.Tiers {
			v := e.Options.Get(t)
			if v == nil {
				row = append(row, cell{"-", st.muted})
				continue
			}
			text := v.Raw()
			if t == e.Tier {
				text = "*" + text
			}
			row = append(row, cell{text, st.tier[t]})
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], len(c.text))
		}
	}

	for _, row := range rows {
		var b strings.Builder
		for i, c := range row {
			b.WriteString(c.style.Sprint(c.text))
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len(c.text)+2))
			}
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
