package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
)

// Format is the encoding of a catalog document.
type Format string

// Supported catalog formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath selects the format of a catalog file by its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", ErrFormat.With(slog.String("path", path))
	}
}

// Load reads and compiles the catalog file at path.
func Load(ctx context.Context, path string, opts ...Option) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrLoad.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	c, err := Decode(ctx, f, format, opts...)
	if err != nil {
		return nil, ErrLoad.Wrap(err).With(slog.String("path", path))
	}

	return c, nil
}

// Decode reads a catalog document in the given format from r and compiles
// it.
func Decode(ctx context.Context, r io.Reader, format Format, opts ...Option) (*Catalog, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrLoad.Wrap(err)
	}

	return decode(ctx, data, format, opts...)
}

func decode(ctx context.Context, data []byte, format Format, opts ...Option) (*Catalog, error) {
	doc, err := unmarshal(ctx, data, format)
	if err != nil {
		return nil, err
	}

	defs, err := Definitions(doc)
	if err != nil {
		return nil, err
	}

	return New(ctx, defs, opts...)
}

// unmarshal decodes data into a generic document.
func unmarshal(ctx context.Context, data []byte, format Format) (map[string]any, error) {
	doc := map[string]any{}

	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&doc)

	case FormatYAML:
		err = yaml.UnmarshalContext(ctx, data, &doc)

	case FormatTOML:
		_, err = toml.Decode(string(data), &doc)

	default:
		return nil, ErrFormat.With(slog.String("format", string(format)))
	}

	if err != nil {
		return nil, ErrLoad.Wrap(err).With(slog.String("format", string(format)))
	}

	return doc, nil
}
