// Package symbols collects named constant definitions (`val name = ...`) from a
// Scala syntax tree into a flat, file-scoped table.
package symbols

import (
	"sort"

	"sbtup/internal/span"
	"sbtup/internal/syntax"
)

// Symbol is the literal right-hand side of a constant and where it sits.
type Symbol struct {
	Value    string        `json:"value"`
	Location span.Location `json:"location"`
}

// Table maps constant names to their definitions. Nested scopes are flattened:
// a name defined inside an object is visible to the whole file, and the last
// definition of a name in source order wins.
type Table map[string]Symbol

// Build scans root depth-first and records every val definition. The right-hand
// side is taken verbatim and its subtree is not searched for further definitions.
func Build(root syntax.Node, file string) Table {
	table := make(Table)
	syntax.Walk(root, func(n syntax.Node) bool {
		if n.Kind() != syntax.KindValDefinition {
			return true
		}
		name, rhs, ok := parseVal(n)
		if !ok {
			return true
		}
		table[name] = Symbol{
			Value:    syntax.Unquote(rhs.Text()),
			Location: span.Location{File: file, Span: rhs.Span()},
		}
		return false
	})
	return table
}

// parseVal finds the bound identifier, skipping leading modifiers such as
// `lazy`, and the expression that follows it.
func parseVal(n syntax.Node) (string, syntax.Node, bool) {
	children := n.Children()
	idx := -1
	for i, c := range children {
		if c.Kind() == syntax.KindIdentifier {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil, false
	}

	rhs := n.Field("value")
	if rhs == nil {
		if idx+1 >= len(children) {
			return "", nil, false
		}
		rhs = children[idx+1]
	}
	return children[idx].Text(), rhs, true
}

// Lookup returns the definition bound to name.
func (t Table) Lookup(name string) (Symbol, bool) {
	s, ok := t[name]
	return s, ok
}

// Merge copies every entry of other into t, overwriting existing names.
func (t Table) Merge(other Table) {
	for name, sym := range other {
		t[name] = sym
	}
}

// Names returns the defined names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
