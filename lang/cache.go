package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/loreleva/Bbo-functions/lang/eval"
)

// cache stores compiled programs keyed by source and options hash.
var cache sync.Map

// entry compiles its source at most once.
type entry struct {
	once    sync.Once
	program *eval.Program
	err     error
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(opts optionsKey) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(opts.maxDepth)
	_ = enc.Encode(opts.fold)
	_ = enc.Encode(opts.vectorResult)

	return xxh3.Hash(buf.Bytes())
}

// CompileCached is like [Compile] but returns the same program for repeated
// calls with equal source and options. Programs are immutable, so sharing
// them is safe. The logger of a cached program is the one given to the
// call that compiled it.
func CompileCached(ctx context.Context, src string, opts ...Option) (*eval.Program, error) {
	c := makeConfig(opts...)

	sourceHash := xxh3.HashString(src)
	optsHash := hashOptions(c.opts)
	key := strconv.FormatUint(sourceHash^optsHash, 36)

	value, hit := cache.LoadOrStore(key, new(entry))

	e, ok := value.(*entry)
	if !ok {
		return nil, ErrCompile.With(slog.String("issue", "invalid cache entry"))
	}

	c.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	e.once.Do(func() {
		root, err := parse(ctx, src, c)
		if err != nil {
			e.err = err

			return
		}

		e.program, e.err = compile(ctx, root, c)
	})

	if e.err != nil {
		if ctx.Err() != nil && errors.Is(e.err, ctx.Err()) {
			cache.CompareAndDelete(key, e)
		}

		return nil, e.err
	}

	return e.program, nil
}

// CompileReader reads a program from r and compiles it through the cache
// used by [CompileCached].
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*eval.Program, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return CompileCached(ctx, string(data), opts...)
}

// ClearCache removes all cached programs.
func ClearCache() {
	cache.Clear()
}
