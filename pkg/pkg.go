//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// Version is the semantic version of the bbo module embedded at build time.
// It is printed by the CLI when users invoke the version flag.
//
//go:embed VERSION
var version string

// Version returns the embedded version string without surrounding space.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command identifier used across the project.
	// For example, it appears in help text and default config paths.
	Name = "bbo"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Black-box objective function compiler and evaluator"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"loreleva", ""},
}
