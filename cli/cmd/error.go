package cmd

import "github.com/loreleva/Bbo-functions/pkg"

var (
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrNoCatalog   = pkg.NewError("no function catalog (use --catalog)")
	ErrNoSource    = pkg.NewError("no program to evaluate")
	ErrBench       = pkg.NewError("benchmark failed")
	ErrCheck       = pkg.NewError("catalog has errors")
)
