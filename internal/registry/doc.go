// Package registry lists published versions of Maven artifacts by reading the
// directory index pages of a Maven repository such as Maven Central.
//
// A group's index (for example https://repo1.maven.org/maven2/dev/zio/) links to
// one directory per artifact; an artifact's index links to one directory per
// version. Scala libraries are published once per binary version with an
// artifact suffix (_3, _2.13, ...), so lookups probe suffixes in an order
// derived from the project's Scala version.
package registry
