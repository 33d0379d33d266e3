package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalog = `
sphere:
  function: sum(x .^ 2)
  minimum_x: 0
  minimum_f: 0
  description: Sum of squares
rosenbrock:
  function: |
    var a = x[2:dim(x)];
    var b = x[1:dim(x) - 1];
    sum(100 * (a - b .^ 2) .^ 2 + (ones(dim(b)) - b) .^ 2)
  minimum_x: 1
  minimum_f: 0
booth:
  function: (x[1] + 2 * x[2] - 7) ^ 2 + (2 * x[1] + x[2] - 5) ^ 2
  dimension: 2
  minimum_x: [1, 3]
  minimum_f: 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// catalogContext returns a context selecting a catalog with content.
func catalogContext(t *testing.T, content string) context.Context {
	t.Helper()

	return WithCatalogPath(t.Context(), writeFile(t, "catalog.yaml", content))
}

func TestReadSource(t *testing.T) {
	path := writeFile(t, "p.bbo", "var a = 1;\na + x[1]\n")

	src, err := readSource(path)
	require.NoError(t, err)
	require.Equal(t, "var a = 1;\na + x[1]\n", src)

	_, err = readSource(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	_, err := loadCatalog(t.Context())
	require.ErrorIs(t, err, ErrNoCatalog)

	c, err := loadCatalog(catalogContext(t, testCatalog))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
}

func run(t *testing.T, fn func(*bytes.Buffer) error) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, fn(&buf))

	return buf.String()
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
