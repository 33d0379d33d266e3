// Package cmd implements the bbo subcommands.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// of the YAML configuration file. It is also the key of the flag mapping
	// inside that file.
	ConfigIdentifier = "config"
)
