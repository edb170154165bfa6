// Package syntaxtest builds small in-memory syntax trees for tests. Leaves carry
// their text; Layout joins them with single spaces and derives every span, so
// tests never hand-write byte offsets.
package syntaxtest

import (
	"sbtup/internal/span"
	"sbtup/internal/syntax"
)

// Node is a fake syntax.Node.
type Node struct {
	kind     string
	leaf     string
	named    bool
	children []*Node
	fields   map[string]*Node
	span     span.Span
	source   *string
}

var _ syntax.Node = (*Node)(nil)

func (n *Node) Kind() string { return n.kind }

func (n *Node) Children() []syntax.Node {
	var out []syntax.Node
	for _, c := range n.children {
		if c.named {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) Field(name string) syntax.Node {
	if f, ok := n.fields[name]; ok {
		return f
	}
	return nil
}

func (n *Node) Span() span.Span { return n.span }

func (n *Node) Text() string {
	if n.source == nil {
		return n.leaf
	}
	return (*n.source)[n.span.Start:n.span.End]
}

// Leaf creates a named leaf node.
func Leaf(kind, text string) *Node {
	return &Node{kind: kind, leaf: text, named: true}
}

// Keyword creates an anonymous token; it contributes text but is not a child.
func Keyword(text string) *Node {
	return &Node{kind: text, leaf: text}
}

// Str creates a double-quoted string literal.
func Str(value string) *Node {
	return Leaf(syntax.KindString, `"`+value+`"`)
}

// Ident creates an identifier.
func Ident(name string) *Node {
	return Leaf(syntax.KindIdentifier, name)
}

// Op creates an operator identifier.
func Op(op string) *Node {
	return Leaf(syntax.KindOperator, op)
}

// Tree creates a named inner node with the given children.
func Tree(kind string, children ...*Node) *Node {
	return &Node{kind: kind, named: true, children: children}
}

// Infix creates an infix_expression with left, operator and right fields.
func Infix(left, op, right *Node) *Node {
	n := Tree(syntax.KindInfixExpression, left, op, right)
	n.fields = map[string]*Node{"left": left, "operator": op, "right": right}
	return n
}

// Select creates a field_expression `value.field`.
func Select(value *Node, field string) *Node {
	f := Ident(field)
	n := Tree(syntax.KindFieldExpression, value, Keyword("."), f)
	n.fields = map[string]*Node{"value": value, "field": f}
	return n
}

// Val creates `[modifiers] val name = value`.
func Val(name string, value *Node, modifiers ...string) *Node {
	var children []*Node
	if len(modifiers) > 0 {
		var mods []*Node
		for _, m := range modifiers {
			mods = append(mods, Keyword(m))
		}
		children = append(children, Tree(syntax.KindModifiers, mods...))
	}
	pattern := Ident(name)
	children = append(children, Keyword("val"), pattern, Keyword("="), value)
	n := Tree(syntax.KindValDefinition, children...)
	n.fields = map[string]*Node{"pattern": pattern, "value": value}
	return n
}

// Layout assigns spans to every node under root and returns the source text.
func Layout(root *Node) string {
	var buf []byte
	var place func(n *Node)
	place = func(n *Node) {
		if len(n.children) == 0 {
			if len(buf) > 0 {
				buf = append(buf, ' ')
			}
			start := len(buf)
			buf = append(buf, n.leaf...)
			n.span = span.New(start, len(buf))
			return
		}
		for _, c := range n.children {
			place(c)
		}
		n.span = span.New(n.children[0].span.Start, n.children[len(n.children)-1].span.End)
	}
	place(root)

	source := string(buf)
	var bind func(n *Node)
	bind = func(n *Node) {
		n.source = &source
		for _, c := range n.children {
			bind(c)
		}
	}
	bind(root)
	return source
}
