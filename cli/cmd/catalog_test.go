package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreleva/Bbo-functions/catalog"
)

func TestCheck_Run(t *testing.T) {
	c := Check{}

	got := run(t, func(buf *bytes.Buffer) error { return c.Run(catalogContext(t, testCatalog), buf) })

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "booth")
	assert.Contains(t, lines[0], "dimension 2")
	assert.Contains(t, lines[2], "dimension any")
	assert.Equal(t, "3 functions compiled", lines[3])

	err := c.Run(catalogContext(t, "bad: 1 +\n"), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrCheck)
	require.ErrorIs(t, err, catalog.ErrCompile)

	require.ErrorIs(t, c.Run(t.Context(), &bytes.Buffer{}), ErrNoCatalog)
}

func TestCheck_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sphere: sum(x .^ 2)\n"), 0o600))

	ctx, cancel := context.WithCancel(WithCatalogPath(t.Context(), path))
	defer cancel()

	var buf syncBuffer

	done := make(chan error, 1)

	go func() { done <- (&Check{Watch: true}).Run(ctx, &buf) }()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "1 functions compiled")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("sphere: sum(x .^ 2)\nline: sum(x)\n"), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "2 functions compiled")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestInfo_Run(t *testing.T) {
	ctx := catalogContext(t, testCatalog)

	list := Info{Dimension: 3}
	got := run(t, func(buf *bytes.Buffer) error { return list.Run(ctx, buf) })

	for _, s := range []string{"NAME", "booth", "rosenbrock", "sphere", "Sum of squares"} {
		assert.Contains(t, got, s)
	}

	one := Info{Name: "rosenbrock", Dimension: 3}
	got = run(t, func(buf *bytes.Buffer) error { return one.Run(ctx, buf) })

	assert.Contains(t, got, "dimension: any")
	assert.Contains(t, got, "minimum x: [1 1 1]")

	one = Info{Name: "booth", Dimension: 3}
	got = run(t, func(buf *bytes.Buffer) error { return one.Run(ctx, buf) })

	assert.Contains(t, got, "minimum x: [1 3]")

	require.ErrorIs(t, (&Info{Name: "ackley"}).Run(ctx, &bytes.Buffer{}), catalog.ErrNotFound)
}

func TestBench_Run(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "bench.prom")

	b := Bench{
		Name:        "sphere",
		Points:      103,
		Workers:     4,
		Dimension:   3,
		Low:         -1,
		High:        1,
		Seed:        7,
		MetricsFile: metrics,
	}

	got := run(t, func(buf *bytes.Buffer) error { return b.Run(catalogContext(t, testCatalog), buf) })

	assert.Contains(t, got, "sphere: 103 evaluations (0 failed)")
	assert.Contains(t, got, "best f = ")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bbo_evaluations_total{function="sphere"} 103`)

	b.High = -2
	require.ErrorIs(t, b.Run(catalogContext(t, testCatalog), &bytes.Buffer{}), ErrBench)
}
