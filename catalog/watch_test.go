package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reload struct {
	catalog *Catalog
	err     error
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlCatalog), 0o600))

	c, err := Load(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = Load(t.Context(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrLoad)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("f: sum(x)\n"), 0o600))

	ctx, cancel := context.WithCancel(t.Context())

	results := make(chan reload, 8)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, path, func(c *Catalog, err error) {
			results <- reload{c, err}
		})
	}()

	next := func() reload {
		t.Helper()

		select {
		case r := <-results:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for reload")

			return reload{}
		}
	}

	r := next()
	require.NoError(t, r.err)
	assert.Equal(t, 1, r.catalog.Len())

	require.NoError(t, os.WriteFile(path, []byte("f: sum(x)\ng: prod(x)\n"), 0o600))

	r = next()
	require.NoError(t, r.err)
	assert.Equal(t, 2, r.catalog.Len())

	require.NoError(t, os.WriteFile(path, []byte("f: y\n"), 0o600))

	r = next()
	require.ErrorIs(t, r.err, ErrCompile)
	assert.Nil(t, r.catalog)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_Format(t *testing.T) {
	err := Watch(t.Context(), "functions.ini", func(*Catalog, error) {})
	require.ErrorIs(t, err, ErrFormat)
}
