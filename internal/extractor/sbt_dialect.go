package extractor

import (
	"strings"

	"sbtup/internal/resolver"
	"sbtup/internal/span"
	"sbtup/internal/syntax"
	"sbtup/internal/version"
)

// SbtDialect implements Dialect for sbt build definitions and Scala sources.
//
// Two coordinate shapes are recognized. Infix operators in the grammar are all
// left-associative at one precedence, so
//
//	"org" %% "artifact" % version
//
// parses as ((org %% artifact) % version), and an assignment such as
//
//	libraryDependencies += "org" % "artifact" % version
//
// parses as (((libraryDependencies += org) % artifact) % version).
type SbtDialect struct{}

func (SbtDialect) Name() string {
	return "sbt"
}

func (d SbtDialect) Dependencies(root syntax.Node, file string, r resolver.Resolver) []Record {
	var records []Record
	syntax.Walk(root, func(n syntax.Node) bool {
		if n.Kind() != syntax.KindInfixExpression {
			return true
		}
		if rec, ok := matchCoordinate(n, file, r); ok {
			records = append(records, rec)
		}
		return true
	})
	return records
}

// matchCoordinate checks n against both shapes:
//
//	infix(infix(string G, S1, string A), S2, V)
//	infix(infix(infix(identifier, _, string G), S1, string A), S2, V)
func matchCoordinate(n syntax.Node, file string, r resolver.Resolver) (Record, bool) {
	inner := n.Field("left")
	if kindOf(inner) != syntax.KindInfixExpression || !isSeparator(n.Field("operator")) {
		return Record{}, false
	}
	if !isSeparator(inner.Field("operator")) {
		return Record{}, false
	}
	artifact := inner.Field("right")
	if kindOf(artifact) != syntax.KindString {
		return Record{}, false
	}

	group := inner.Field("left")
	switch kindOf(group) {
	case syntax.KindString:
	case syntax.KindInfixExpression:
		if kindOf(group.Field("left")) != syntax.KindIdentifier {
			return Record{}, false
		}
		group = group.Field("right")
		if kindOf(group) != syntax.KindString {
			return Record{}, false
		}
	default:
		return Record{}, false
	}

	value, loc, ok := resolveVersion(n.Field("right"), file, r)
	if !ok {
		return Record{}, false
	}
	return Record{
		Organization: syntax.Unquote(group.Text()),
		Artifact:     syntax.Unquote(artifact.Text()),
		Version:      version.Parse(value),
		Location:     loc,
	}, true
}

func (d SbtDialect) LanguageVersion(root syntax.Node, file string, r resolver.Resolver) (Record, bool) {
	var rhs syntax.Node
	syntax.Walk(root, func(n syntax.Node) bool {
		if rhs != nil {
			return false
		}
		if isLanguageVersionSetting(n) {
			rhs = n.Field("right")
			return false
		}
		return true
	})
	if rhs == nil {
		return Record{}, false
	}

	value, loc, ok := resolveVersion(rhs, file, r)
	if !ok {
		return Record{}, false
	}
	v := version.Parse(value)
	artifact := Scala2Library
	if v.IsSemVer() && v.Major == 3 {
		artifact = Scala3Library
	}
	return Record{
		Organization: LanguageOrganization,
		Artifact:     artifact,
		Version:      v,
		Location:     loc,
	}, true
}

// isLanguageVersionSetting matches `scalaVersion := v` and the scoped
// `ThisBuild / scalaVersion := v`.
func isLanguageVersionSetting(n syntax.Node) bool {
	if n.Kind() != syntax.KindInfixExpression {
		return false
	}
	op := n.Field("operator")
	if op == nil || op.Text() != ":=" {
		return false
	}
	key := n.Field("left")
	if kindOf(key) == syntax.KindInfixExpression {
		key = key.Field("right")
	}
	return kindOf(key) == syntax.KindIdentifier && key.Text() == LanguageVersionKey
}

// resolveVersion reads a version operand: a string literal is used as is, an
// identifier is looked up by name, and a member access `a.b.c` is looked up by
// its last segment.
func resolveVersion(n syntax.Node, file string, r resolver.Resolver) (string, span.Location, bool) {
	var name string
	switch kindOf(n) {
	case syntax.KindString:
		return syntax.Unquote(n.Text()), span.Location{File: file, Span: n.Span()}, true
	case syntax.KindIdentifier:
		name = n.Text()
	case syntax.KindFieldExpression:
		name = lastSegment(n)
	}
	if name == "" || r == nil {
		return "", span.Location{}, false
	}
	sym, ok := r.Lookup(name)
	if !ok {
		return "", span.Location{}, false
	}
	return sym.Value, sym.Location, true
}

func lastSegment(n syntax.Node) string {
	if f := n.Field("field"); f != nil {
		return f.Text()
	}
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind() == syntax.KindIdentifier {
			return children[i].Text()
		}
	}
	return ""
}

// isSeparator accepts operators made only of '%' characters: %, %%, %%%.
func isSeparator(op syntax.Node) bool {
	if op == nil {
		return false
	}
	text := op.Text()
	return text != "" && strings.Trim(text, "%") == ""
}

func kindOf(n syntax.Node) string {
	if n == nil {
		return ""
	}
	return n.Kind()
}
