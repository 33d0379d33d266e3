package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/loreleva/Bbo-functions/cli/cmd/repl"
	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Eval evaluates a program or a catalog function at a point.
type Eval struct {
	Point []string `arg:"" help:"Input point x: numbers separated by commas or spaces, or a JSON array" name:"x" optional:""`

	Expr     string `help:"Program source"                 short:"e" xor:"program"`
	File     string `help:"Program file or '-' for stdin"  short:"f" xor:"program"`
	Function string `help:"Catalog function name"          short:"F" xor:"program"`

	Vector bool `help:"Allow a vector-valued result"`
	Fold   bool `default:"true" help:"Fold constant subexpressions" negatable:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, out io.Writer) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	x, err := repl.ParsePoint(strings.Join(e.Point, " "))
	if err != nil {
		return err
	}

	if e.Function != "" {
		c, err := loadCatalog(ctx)
		if err != nil {
			return err
		}

		f, err := c.Lookup(e.Function)
		if err != nil {
			return err
		}

		y, err := f.Evaluate(ctx, x)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, eval.ScalarValue(y))

		return err
	}

	src, err := e.source()
	if err != nil {
		return err
	}

	p, err := lang.CompileCached(ctx, src,
		lang.WithVectorResult(e.Vector),
		lang.WithConstantFolding(e.Fold),
		lang.WithLogger(log.Default()),
	)
	if err != nil {
		if snippet := lang.Snippet(src, err); snippet != "" {
			log.DebugContext(ctx, "compile failed", slog.String("source", snippet))
		}

		return pkg.WrapError(err).With(slog.String("command", "eval"))
	}

	v, err := p.EvaluateValue(ctx, x)
	if err != nil {
		return pkg.WrapError(err).With(slog.String("command", "eval"))
	}

	_, err = fmt.Fprintln(out, v)

	return err
}

func (e *Eval) source() (string, error) {
	switch {
	case e.Expr != "":
		return e.Expr, nil
	case e.File != "":
		return readSource(e.File)
	default:
		return readSource(stdinSource)
	}
}
