package symbols

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbtup/internal/span"
	"sbtup/internal/syntax"
	st "sbtup/internal/syntax/syntaxtest"
)

func locOf(t *testing.T, file, code, literal string) span.Location {
	t.Helper()
	start := strings.Index(code, literal)
	require.GreaterOrEqual(t, start, 0, "literal %q not found", literal)
	return span.At(file, start, start+len(literal))
}

func TestBuild_FlattensNestedScopes(t *testing.T) {
	code := `
object Outer {
    val example = "Hello"
    val falseExample = 123
    object Inner {
        val anotherExample = "World"
        val yetAnotherExample = 456
    }
    val complexExample = "Hello" + "World"
}
`
	tree, err := syntax.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	defer tree.Close()

	table := Build(tree.Root(), "Outer.scala")

	assert.Equal(t, []string{"anotherExample", "complexExample", "example", "falseExample", "yetAnotherExample"}, table.Names())

	t.Run("String literal", func(t *testing.T) {
		sym, ok := table.Lookup("example")
		require.True(t, ok)
		assert.Equal(t, "Hello", sym.Value)
		assert.Equal(t, locOf(t, "Outer.scala", code, `"Hello"`), sym.Location)
	})

	t.Run("Nested object", func(t *testing.T) {
		sym, ok := table.Lookup("anotherExample")
		require.True(t, ok)
		assert.Equal(t, "World", sym.Value)
		assert.Equal(t, locOf(t, "Outer.scala", code, `"World"`), sym.Location)
	})

	t.Run("Non-string literal", func(t *testing.T) {
		sym, ok := table.Lookup("yetAnotherExample")
		require.True(t, ok)
		assert.Equal(t, "456", sym.Value)
	})

	t.Run("Expression taken verbatim", func(t *testing.T) {
		sym, ok := table.Lookup("complexExample")
		require.True(t, ok)
		assert.Equal(t, `Hello" + "World`, sym.Value)
		assert.Equal(t, locOf(t, "Outer.scala", code, `"Hello" + "World"`), sym.Location)
	})
}

func TestBuild_LazyVal(t *testing.T) {
	root := st.Tree("compilation_unit",
		st.Val("scala2", st.Str("2.13.6"), "lazy"),
	)
	source := st.Layout(root)

	table := Build(root, "build.sbt")

	sym, ok := table.Lookup("scala2")
	require.True(t, ok)
	assert.Equal(t, "2.13.6", sym.Value)
	start := strings.Index(source, `"2.13.6"`)
	assert.Equal(t, span.At("build.sbt", start, start+8), sym.Location)
}

func TestBuild_LastDefinitionWins(t *testing.T) {
	root := st.Tree("compilation_unit",
		st.Val("v", st.Str("1.0.0")),
		st.Tree("object_definition",
			st.Ident("Deps"),
			st.Tree("template_body", st.Val("v", st.Str("2.0.0"))),
		),
	)
	st.Layout(root)

	table := Build(root, "build.sbt")

	sym, ok := table.Lookup("v")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", sym.Value)
}

func TestBuild_DoesNotDescendIntoDefinition(t *testing.T) {
	inner := st.Tree("block", st.Val("hidden", st.Str("0.1.0")))
	root := st.Tree("compilation_unit", st.Val("outer", inner))
	st.Layout(root)

	table := Build(root, "build.sbt")

	_, ok := table.Lookup("outer")
	assert.True(t, ok)
	_, ok = table.Lookup("hidden")
	assert.False(t, ok)
}

func TestTable_Merge(t *testing.T) {
	a := Table{"x": {Value: "1"}, "y": {Value: "2"}}
	b := Table{"y": {Value: "3"}, "z": {Value: "4"}}

	a.Merge(b)

	assert.Equal(t, "1", a["x"].Value)
	assert.Equal(t, "3", a["y"].Value)
	assert.Equal(t, "4", a["z"].Value)
}
