package extractor

import (
	"sbtup/internal/resolver"
	"sbtup/internal/syntax"
)

// Dialect recognizes dependency declarations in one build-description syntax.
type Dialect interface {
	Name() string
	// Dependencies returns every coordinate declaration under root, in source order.
	Dependencies(root syntax.Node, file string, r resolver.Resolver) []Record
	// LanguageVersion returns the language-library record implied by the
	// build's language version setting, if any.
	LanguageVersion(root syntax.Node, file string, r resolver.Resolver) (Record, bool)
}
