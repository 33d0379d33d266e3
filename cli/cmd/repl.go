package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/cli/cmd/repl"
	"github.com/loreleva/Bbo-functions/log"
)

// Repl starts an interactive evaluator.
type Repl struct {
	Point []string `arg:"" help:"Initial input point x" name:"x" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	x, err := repl.ParsePoint(strings.Join(r.Point, " "))
	if err != nil {
		return err
	}

	var c *catalog.Catalog

	if catalogPathFrom(ctx) != "" {
		c, err = loadCatalog(ctx)
		if err != nil {
			return err
		}
	}

	cacheDir := kongContextFrom(ctx).Model.Vars()[CacheIdentifier]

	log.DebugContext(ctx, "starting repl",
		slog.Int("dimension", len(x)),
		slog.Bool("catalog", c != nil),
	)

	return repl.Run(ctx, repl.NewSession(x, c, log.Default()), cacheDir, log.Default())
}
