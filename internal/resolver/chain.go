// Package resolver turns constant references found in dependency declarations
// into symbol definitions, trying the file's own table before the project scope.
package resolver

import (
	"sbtup/internal/symbols"
)

// Resolver looks up a constant by its simple name.
type Resolver interface {
	Name() string
	Lookup(name string) (symbols.Symbol, bool)
}

type ResolveStats struct {
	Attempted int
	Resolved  int
}

type StageResult struct {
	Resolver string
	Stats    ResolveStats
}

// TableResolver resolves names against one symbol table.
type TableResolver struct {
	name  string
	table symbols.Table
}

func NewTableResolver(name string, table symbols.Table) *TableResolver {
	return &TableResolver{name: name, table: table}
}

// NewFileResolver resolves against the symbols of the file being scanned.
func NewFileResolver(table symbols.Table) *TableResolver {
	return NewTableResolver("file", table)
}

// NewProjectResolver resolves against symbols defined anywhere in the project.
func NewProjectResolver(table symbols.Table) *TableResolver {
	return NewTableResolver("project", table)
}

func (r *TableResolver) Name() string {
	return r.name
}

func (r *TableResolver) Lookup(name string) (symbols.Symbol, bool) {
	return r.table.Lookup(name)
}

// ProjectScope merges file tables in the given order; a later file's
// definition of a name replaces an earlier one.
func ProjectScope(tables ...symbols.Table) symbols.Table {
	scope := make(symbols.Table)
	for _, t := range tables {
		scope.Merge(t)
	}
	return scope
}

// ResolverChain tries each resolver in order and keeps per-stage counts.
// A chain is owned by a single file scan and is not safe for concurrent use.
type ResolverChain struct {
	resolvers  []Resolver
	stats      []ResolveStats
	unresolved int
}

func NewResolverChain(resolvers ...Resolver) *ResolverChain {
	return &ResolverChain{
		resolvers: resolvers,
		stats:     make([]ResolveStats, len(resolvers)),
	}
}

// NewDefaultChain resolves against the file first and the project second.
// A nil project table yields a file-only chain.
func NewDefaultChain(file, project symbols.Table) *ResolverChain {
	if project == nil {
		return NewResolverChain(NewFileResolver(file))
	}
	return NewResolverChain(NewFileResolver(file), NewProjectResolver(project))
}

func (c *ResolverChain) Name() string {
	return "chain"
}

func (c *ResolverChain) Lookup(name string) (symbols.Symbol, bool) {
	for i, r := range c.resolvers {
		c.stats[i].Attempted++
		if sym, ok := r.Lookup(name); ok {
			c.stats[i].Resolved++
			return sym, true
		}
	}
	c.unresolved++
	return symbols.Symbol{}, false
}

// Results reports what each stage resolved so far.
func (c *ResolverChain) Results() []StageResult {
	out := make([]StageResult, len(c.resolvers))
	for i, r := range c.resolvers {
		out[i] = StageResult{Resolver: r.Name(), Stats: c.stats[i]}
	}
	return out
}

// Unresolved is the number of lookups no stage could answer.
func (c *ResolverChain) Unresolved() int {
	return c.unresolved
}
