package extractor

import (
	"context"
	"fmt"
	"os"

	"sbtup/internal/resolver"
	"sbtup/internal/symbols"
	"sbtup/internal/syntax"
)

// Extractor orchestrates parsing, symbol collection and dependency extraction
// for a build-description language.
type Extractor struct {
	dialect  Dialect
	langName string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var d Dialect
	switch lang {
	case "sbt", "scala":
		d = SbtDialect{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{dialect: d, langName: lang}, nil
}

// ParsedFile is a parsed source with its file-scoped symbol table. It owns the
// syntax tree and must be closed.
type ParsedFile struct {
	Path    string
	Symbols symbols.Table
	tree    *syntax.Tree
}

func (p *ParsedFile) Root() syntax.Node {
	return p.tree.Root()
}

func (p *ParsedFile) Close() {
	if p.tree != nil {
		p.tree.Close()
	}
}

// ParseFile reads and parses path and builds its symbol table.
func (e *Extractor) ParseFile(ctx context.Context, path string) (*ParsedFile, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ParseSource(ctx, path, source)
}

// ParseSource parses source that belongs to path.
func (e *Extractor) ParseSource(ctx context.Context, path string, source []byte) (*ParsedFile, error) {
	tree, err := syntax.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	return &ParsedFile{
		Path:    path,
		Symbols: symbols.Build(tree.Root(), path),
		tree:    tree,
	}, nil
}

// ExtractOptions controls one file's extraction.
type ExtractOptions struct {
	// Project holds symbols visible from every file. Nil limits resolution to
	// the file's own definitions.
	Project symbols.Table
	// LanguageVersion also emits the language-library record for this file.
	LanguageVersion bool
}

// Extract runs the dialect over a parsed file.
func (e *Extractor) Extract(pf *ParsedFile, opts ExtractOptions) FileDependencies {
	chain := resolver.NewDefaultChain(pf.Symbols, opts.Project)
	root := pf.Root()

	deps := FileDependencies{
		Path:    pf.Path,
		Records: e.dialect.Dependencies(root, pf.Path, chain),
	}
	if opts.LanguageVersion {
		if rec, ok := e.dialect.LanguageVersion(root, pf.Path, chain); ok {
			deps.Records = append(deps.Records, rec)
		}
	}
	deps.Unresolved = chain.Unresolved()
	return deps
}

// ExtractFromFile parses a single file and extracts its dependencies.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string, opts ExtractOptions) (FileDependencies, error) {
	pf, err := e.ParseFile(ctx, path)
	if err != nil {
		return FileDependencies{}, err
	}
	defer pf.Close()
	return e.Extract(pf, opts), nil
}

// Language returns the configured language name.
func (e *Extractor) Language() string {
	return e.langName
}
