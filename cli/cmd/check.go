package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/log"
)

// Check compiles every function of the catalog and reports the result.
type Check struct {
	Watch bool `help:"Check again whenever the catalog file changes" short:"w"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, out io.Writer) error {
	path := catalogPathFrom(ctx)
	if path == "" {
		return ErrNoCatalog
	}

	if !c.Watch {
		cat, err := loadCatalog(ctx)
		if err != nil {
			return ErrCheck.With(slog.String("catalog", path)).Wrap(err)
		}

		return report(out, cat)
	}

	log.InfoContext(ctx, "watching catalog", slog.String("path", path))

	return catalog.Watch(ctx, path, func(cat *catalog.Catalog, err error) {
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)

			return
		}

		if err := report(out, cat); err != nil {
			log.WarnContext(ctx, "report failed", slog.Any("error", err))
		}
	}, catalog.WithLogger(log.Default()))
}

// report prints one line per function followed by a summary.
func report(out io.Writer, cat *catalog.Catalog) error {
	for name, f := range cat.All() {
		dim := "any"
		if d, ok := f.Dimension(); ok {
			dim = strconv.Itoa(d)
		}

		if _, err := fmt.Fprintf(out, "ok  %-24s dimension %s\n", name, dim); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "%d functions compiled\n", cat.Len())

	return err
}
