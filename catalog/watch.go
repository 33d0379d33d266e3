package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"

	"github.com/loreleva/Bbo-functions/log"
)

// DebounceWindow is how long [Watch] waits after the last change event
// before reloading.
const DebounceWindow = 100 * time.Millisecond

// Watch loads the catalog at path and reloads it whenever its content
// changes, passing each result to fn. fn is first called with the initial
// load. Watch returns when ctx is done.
func Watch(
	ctx context.Context,
	path string,
	fn func(*Catalog, error),
	opts ...Option,
) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return ErrWatch.Wrap(err).With(slog.String("path", path))
	}

	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err).With(slog.String("path", path))
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return ErrWatch.Wrap(err).With(slog.String("path", path))
	}

	w := &watch{
		path:   abs,
		format: format,
		fn:     fn,
		opts:   opts,
		logger: makeOptions(opts...).logger,
	}
	w.reload(ctx)

	// Writes arrive in bursts; reload once the file has been quiet.
	timer := time.NewTimer(DebounceWindow)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != abs {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			timer.Reset(DebounceWindow)

		case <-timer.C:
			w.reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			fn(nil, ErrWatch.Wrap(err).With(slog.String("path", path)))

		case <-ctx.Done():
			return nil
		}
	}
}

type watch struct {
	path   string
	format Format
	fn     func(*Catalog, error)
	opts   []Option
	logger log.Logger
	hash   uint64
	loaded bool
}

// reload rebuilds the catalog if the file content changed.
func (w *watch) reload(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// A replaced file may briefly not exist.
		if os.IsNotExist(err) && w.loaded {
			return
		}

		w.fn(nil, ErrLoad.Wrap(err).With(slog.String("path", w.path)))

		return
	}

	hash := xxh3.Hash(data)
	if w.loaded && hash == w.hash {
		return
	}

	w.hash, w.loaded = hash, true

	w.logger.DebugContext(ctx, "catalog changed", slog.String("path", w.path))

	c, err := decode(ctx, data, w.format, w.opts...)
	if err != nil {
		err = ErrLoad.Wrap(err).With(slog.String("path", w.path))
	}

	w.fn(c, err)
}
