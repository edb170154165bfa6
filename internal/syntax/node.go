// Package syntax is the boundary between the dependency scanner and the structural
// parser. Consumers only see the Node capability; the tree-sitter binding stays here.
package syntax

import "sbtup/internal/span"

// Node kinds produced by the Scala grammar that the scanner inspects.
const (
	KindValDefinition   = "val_definition"
	KindModifiers       = "modifiers"
	KindIdentifier      = "identifier"
	KindString          = "string"
	KindInfixExpression = "infix_expression"
	KindFieldExpression = "field_expression"
	KindOperator        = "operator_identifier"
)

// Node is a typed syntax tree node with byte offsets into its source text.
type Node interface {
	// Kind is the grammar node type, e.g. "infix_expression".
	Kind() string
	// Children returns the named children in source order.
	Children() []Node
	// Field returns the child bound to a grammar field name, or nil.
	Field(name string) Node
	Span() span.Span
	// Text is the exact source text covered by Span.
	Text() string
}

// Walk visits n and its descendants depth-first in source order. When fn returns
// false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children() {
		Walk(child, fn)
	}
}

// Unquote strips surrounding double quotes from a string literal's text.
func Unquote(text string) string {
	for len(text) > 0 && text[0] == '"' {
		text = text[1:]
	}
	for len(text) > 0 && text[len(text)-1] == '"' {
		text = text[:len(text)-1]
	}
	return text
}
