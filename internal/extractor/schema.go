package extractor

import (
	"sbtup/internal/span"
	"sbtup/internal/version"
)

// Record is one textual occurrence of a dependency coordinate.
type Record struct {
	Organization string          `json:"organization"`
	Artifact     string          `json:"artifact"`
	Version      version.Version `json:"version"`
	// Location is where the version text lives: the literal itself, or the
	// right-hand side of the constant it was resolved through.
	Location span.Location `json:"location"`
}

// FileDependencies is everything extracted from one file.
type FileDependencies struct {
	Path       string   `json:"path"`
	Records    []Record `json:"records"`
	Unresolved int      `json:"unresolved"` // declarations dropped for unresolved references
}

// Coordinates of the synthesized language-library dependency.
const (
	LanguageOrganization = "org.scala-lang"
	Scala3Library        = "scala3-library_3"
	Scala2Library        = "scala-library"
	LanguageVersionKey   = "scalaVersion"
)
