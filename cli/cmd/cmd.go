package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/log"
)

type (
	contextKey     struct{}
	catalogPathKey struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithCatalogPath returns a new context.Context containing the path of the
// function catalog selected on the command line.
func WithCatalogPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, catalogPathKey{}, path)
}

func catalogPathFrom(ctx context.Context) string {
	path, _ := ctx.Value(catalogPathKey{}).(string)

	return path
}

// loadCatalog loads the catalog selected with --catalog.
func loadCatalog(ctx context.Context, opts ...catalog.Option) (*catalog.Catalog, error) {
	path := catalogPathFrom(ctx)
	if path == "" {
		return nil, ErrNoCatalog
	}

	opts = append([]catalog.Option{catalog.WithLogger(log.Default())}, opts...)

	return catalog.Load(ctx, path, opts...)
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// openSource opens the named file, or stdin for "-", behind a read-ahead
// buffer.
func openSource(name string) (io.ReadCloser, error) {
	if name == stdinSource {
		return readahead.NewReader(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	return readahead.NewReadCloser(f), nil
}

// readSource returns the content of the named file, or of stdin for "-".
func readSource(name string) (string, error) {
	r, err := openSource(name)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)

	return string(data), err
}
