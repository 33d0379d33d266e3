package catalog

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
)

// Catalog is an immutable set of compiled functions.
type Catalog struct {
	funcs map[string]*Function
	names []string
}

type options struct {
	logger      log.Logger
	metrics     *Metrics
	compile     []lang.Option
	concurrency int
}

// Option configures how a catalog is built.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records the evaluations of every function in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCompileOptions passes opts to the compiler for every function.
func WithCompileOptions(opts ...lang.Option) Option {
	return func(o *options) { o.compile = append(o.compile, opts...) }
}

// WithConcurrency bounds the number of functions compiled in parallel.
// Values below 1 select the number of CPUs.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}

	return o
}

// New compiles every definition in defs. It fails with the error of the
// first function, in name order, that does not compile.
func New(ctx context.Context, defs map[string]Definition, opts ...Option) (*Catalog, error) {
	o := makeOptions(opts...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := slices.Sorted(maps.Keys(defs))
	funcs := make([]*Function, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group

	g.SetLimit(o.concurrency)

	compileOpts := append([]lang.Option{lang.WithLogger(o.logger)}, o.compile...)

	for i, name := range names {
		g.Go(func() error {
			funcs[i], errs[i] = build(ctx, name, defs[name], o.metrics, compileOpts)

			return errs[i]
		})
	}

	// Every function is compiled so the reported error does not depend on
	// scheduling.
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			if e != nil {
				return nil, e
			}
		}
	}

	c := &Catalog{funcs: make(map[string]*Function, len(names)), names: names}
	for i, name := range names {
		c.funcs[name] = funcs[i]
	}

	o.logger.DebugContext(ctx, "catalog built", slog.Int("functions", len(names)))

	return c, nil
}

func build(
	ctx context.Context,
	name string,
	def Definition,
	metrics *Metrics,
	opts []lang.Option,
) (*Function, error) {
	program, err := lang.CompileCached(ctx, def.Source, opts...)
	if err != nil {
		return nil, ErrCompile.With(slog.String("name", name)).Wrap(err)
	}

	f := &Function{name: name, def: def, program: program, metrics: metrics}

	if f.minX, err = compileMinimum(def.MinimumX); err != nil {
		return nil, ErrDefinition.With(slog.String("name", name)).Wrap(err)
	}

	if f.minF, err = compileMinimum(def.MinimumF); err != nil {
		return nil, ErrDefinition.With(slog.String("name", name)).Wrap(err)
	}

	return f, nil
}

// Len returns the number of functions in c.
func (c *Catalog) Len() int { return len(c.names) }

// Names returns the function names in sorted order.
func (c *Catalog) Names() iter.Seq[string] { return slices.Values(c.names) }

// All returns the functions in name order.
func (c *Catalog) All() iter.Seq2[string, *Function] {
	return func(yield func(string, *Function) bool) {
		for _, name := range c.names {
			if !yield(name, c.funcs[name]) {
				return
			}
		}
	}
}

// Lookup returns the function called name.
func (c *Catalog) Lookup(name string) (*Function, error) {
	f, ok := c.funcs[name]
	if !ok {
		return nil, ErrNotFound.With(slog.String("name", name))
	}

	return f, nil
}

// Function is a compiled catalog entry.
type Function struct {
	name    string
	def     Definition
	program *eval.Program
	minX    minimum
	minF    minimum
	metrics *Metrics
}

// Name returns the catalog name of f.
func (f *Function) Name() string { return f.name }

// Source returns the program text of f.
func (f *Function) Source() string { return f.def.Source }

// Description returns the description of f.
func (f *Function) Description() string { return f.def.Description }

// Definition returns the definition f was built from.
func (f *Function) Definition() Definition { return f.def }

// Program returns the compiled program of f.
func (f *Function) Program() *eval.Program { return f.program }

// Dimension returns the fixed input dimension of f. It reports false for
// functions accepting any dimension.
func (f *Function) Dimension() (int, bool) {
	return f.def.Dimension, f.def.Dimension != Variable
}

// Parameters returns the description of the tunable constants of f.
func (f *Function) Parameters() (string, bool) {
	return f.def.Parameters, f.def.Parameters != ""
}

// Evaluate computes f at x.
func (f *Function) Evaluate(ctx context.Context, x []float64) (float64, error) {
	start := time.Now()

	y, err := f.evaluate(ctx, x)

	f.metrics.observe(f.name, time.Since(start).Seconds(), err)

	return y, err
}

func (f *Function) evaluate(ctx context.Context, x []float64) (float64, error) {
	if d, fixed := f.Dimension(); fixed && len(x) != d {
		return 0, ErrDimension.With(
			slog.String("name", f.name),
			slog.Int("expected", d),
			slog.Int("actual", len(x)),
		)
	}

	return f.program.Evaluate(ctx, x)
}

// resolve picks the dimension used for metadata.
func (f *Function) resolve(d int) (int, error) {
	if fixed, ok := f.Dimension(); ok {
		return fixed, nil
	}

	if d < 1 {
		return 0, ErrNeedsDimension.With(slog.String("name", f.name))
	}

	return d, nil
}

// MinimumPoint returns the location of the global minimum of f in
// dimension d. d is ignored for functions of fixed dimension.
func (f *Function) MinimumPoint(d int) ([]float64, error) {
	d, err := f.resolve(d)
	if err != nil {
		return nil, err
	}

	s, list, isList, err := f.minX.value(d)
	if err != nil {
		return nil, f.wrap(err)
	}

	if isList {
		if len(list) != d {
			return nil, f.wrap(ErrMetadata.With(
				slog.String("reason", "minimum point has the wrong dimension"),
				slog.Int("expected", d),
				slog.Int("actual", len(list)),
			))
		}

		return list, nil
	}

	point := make([]float64, d)
	for i := range point {
		point[i] = s
	}

	return point, nil
}

// MinimumValue returns the global minimum of f in dimension d. d is ignored
// for functions of fixed dimension.
func (f *Function) MinimumValue(d int) (float64, error) {
	d, err := f.resolve(d)
	if err != nil {
		return 0, err
	}

	s, _, isList, err := f.minF.value(d)
	if err != nil {
		return 0, f.wrap(err)
	}

	if isList {
		return 0, f.wrap(ErrMetadata.With(slog.String("reason", "minimum value is a list")))
	}

	return s, nil
}

func (f *Function) wrap(err error) error {
	if errors.Is(err, ErrNoMinimum) {
		return ErrNoMinimum.With(slog.String("name", f.name))
	}

	return ErrDefinition.With(slog.String("name", f.name)).Wrap(err)
}
