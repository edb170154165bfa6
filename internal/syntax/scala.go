package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/scala"

	"sbtup/internal/span"
)

// Tree owns a parsed Scala source file.
type Tree struct {
	tree   *sitter.Tree
	source []byte
}

// Parse builds a structural syntax tree for Scala or sbt source text.
// Syntax errors do not fail the parse; the grammar recovers and the
// well-formed subtrees stay visible to the scanner.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(scala.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scala source: %w", err)
	}
	return &Tree{tree: tree, source: source}, nil
}

// Root returns the compilation unit node.
func (t *Tree) Root() Node {
	return wrap(t.tree.RootNode(), t.source)
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

// Close releases the native tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

type sitterNode struct {
	n      *sitter.Node
	source []byte
}

func wrap(n *sitter.Node, source []byte) Node {
	if n == nil {
		return nil
	}
	return &sitterNode{n: n, source: source}
}

func (s *sitterNode) Kind() string {
	return s.n.Type()
}

func (s *sitterNode) Children() []Node {
	count := int(s.n.NamedChildCount())
	children := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if child := s.n.NamedChild(i); child != nil {
			children = append(children, &sitterNode{n: child, source: s.source})
		}
	}
	return children
}

func (s *sitterNode) Field(name string) Node {
	return wrap(s.n.ChildByFieldName(name), s.source)
}

func (s *sitterNode) Span() span.Span {
	return span.New(int(s.n.StartByte()), int(s.n.EndByte()))
}

func (s *sitterNode) Text() string {
	return s.n.Content(s.source)
}
