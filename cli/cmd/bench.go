package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
)

// Bench evaluates a catalog function at uniformly random points.
type Bench struct {
	Name string `arg:"" help:"Function name"`

	Points    int     `default:"100000" help:"Number of evaluations"                              short:"n"`
	Workers   int     `default:"0"      help:"Concurrent evaluators (0 uses GOMAXPROCS)"          short:"w"`
	Dimension int     `default:"2"      help:"Dimension of variable-dimension functions"          short:"d"`
	Low       float64 `default:"-5"     help:"Lower bound of every coordinate"`
	High      float64 `default:"5"      help:"Upper bound of every coordinate"`
	Seed      uint64  `default:"1"      help:"Random seed"`

	MetricsFile string `help:"Write evaluation metrics in Prometheus text format" type:"path"`
}

// benchResult is the outcome of one worker.
type benchResult struct {
	evaluations int
	failures    int
	best        float64
	bestX       []float64
}

// Run executes the bench command.
func (b *Bench) Run(ctx context.Context, out io.Writer) error {
	reg := prometheus.NewRegistry()
	metrics := catalog.NewMetrics(reg)

	c, err := loadCatalog(ctx, catalog.WithMetrics(metrics))
	if err != nil {
		return err
	}

	f, err := c.Lookup(b.Name)
	if err != nil {
		return err
	}

	dim := b.Dimension
	if d, ok := f.Dimension(); ok {
		dim = d
	}

	if dim < 1 || b.Points < 1 || b.High < b.Low {
		return ErrBench.With(
			slog.Int("dimension", dim),
			slog.Int("points", b.Points),
			slog.Float64("low", b.Low),
			slog.Float64("high", b.High),
		)
	}

	workers := b.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	workers = min(workers, b.Points)
	results := make([]benchResult, workers)

	g, gctx := errgroup.WithContext(ctx)

	start := time.Now()

	for w := range workers {
		n := b.Points / workers
		if w < b.Points%workers {
			n++
		}

		g.Go(func() error {
			results[w] = b.run(gctx, f, w, n, dim)

			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return ErrBench.Wrap(err)
	}

	elapsed := time.Since(start)

	total := benchResult{best: math.Inf(1)}
	for _, r := range results {
		total.evaluations += r.evaluations
		total.failures += r.failures

		if r.bestX != nil && r.best < total.best {
			total.best, total.bestX = r.best, r.bestX
		}
	}

	log.DebugContext(ctx, "bench done",
		slog.String("function", b.Name),
		slog.Int("workers", workers),
		slog.Duration("elapsed", elapsed),
	)

	fmt.Fprintf(out, "%s: %d evaluations (%d failed) in %s, %.0f evaluations/s\n",
		b.Name, total.evaluations, total.failures, elapsed.Round(time.Microsecond),
		float64(total.evaluations)/elapsed.Seconds())

	if total.bestX != nil {
		fmt.Fprintf(out, "best f = %s at x = %s\n",
			eval.ScalarValue(total.best), eval.VectorValue(total.bestX))
	}

	if b.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(b.MetricsFile, reg); err != nil {
			return ErrBench.With(slog.String("file", b.MetricsFile)).Wrap(err)
		}
	}

	return nil
}

// run evaluates f at n random points drawn from the stream of worker w.
func (b *Bench) run(ctx context.Context, f *catalog.Function, w, n, dim int) benchResult {
	rng := rand.New(rand.NewPCG(b.Seed, uint64(w)))
	x := make([]float64, dim)

	r := benchResult{best: math.Inf(1)}

	for range n {
		if ctx.Err() != nil {
			break
		}

		for i := range x {
			x[i] = b.Low + rng.Float64()*(b.High-b.Low)
		}

		y, err := f.Evaluate(ctx, x)

		r.evaluations++

		if err != nil {
			r.failures++

			continue
		}

		if y < r.best {
			r.best = y
			r.bestX = append(r.bestX[:0], x...)
		}
	}

	return r
}
