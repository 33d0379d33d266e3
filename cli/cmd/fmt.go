package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/log"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Fmt parses a program and prints it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Print the canonical program text (default)."`
	JSON   JSON   `cmd:""                    help:"Print the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Print the syntax tree as YAML."`
	AST    AST    `cmd:""                    help:"Print the syntax tree as an indented outline."`
}

// Input is the positional program file shared by the fmt subcommands.
type Input struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// parse reads and parses the program, tagging errors with format.
func (s Input) parse(ctx context.Context, format string) (*ast.Node, error) {
	src, err := readSource(s.Source)
	if err != nil {
		return nil, err
	}

	root, err := lang.Parse(ctx, src, lang.WithLogger(log.Default()))
	if err != nil {
		return nil, pkg.WrapError(err).With(
			slog.String("format", format),
			slog.String("source", s.Source),
		)
	}

	return root, nil
}

// Native prints the canonical program text.
type Native struct {
	Input `embed:""`
}

// Run executes the native format command.
func (f *Native) Run(ctx context.Context, out io.Writer) error {
	root, err := f.parse(ctx, "native")
	if err != nil {
		return err
	}

	return lang.Format(ctx, out, root)
}

// JSON prints the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context, out io.Writer) error {
	root, err := j.parse(ctx, "json")
	if err != nil {
		return err
	}

	return root.FormatJSON(ctx, out, j.Indent)
}

// YAML prints the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context, out io.Writer) error {
	root, err := y.parse(ctx, "yaml")
	if err != nil {
		return err
	}

	return root.FormatYAML(ctx, out, y.Indent)
}

// AST prints the syntax tree as an indented outline.
type AST struct {
	Indent int `default:"2" help:"Indent width per tree level" short:"i"`

	Input `embed:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, out io.Writer) error {
	root, err := a.parse(ctx, "ast")
	if err != nil {
		return err
	}

	return root.Print(out, a.Indent)
}
