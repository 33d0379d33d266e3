package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/pkg"
)

const yamlCatalog = `
sphere:
  function: sum(x .^ 2)
  minimum_x: 0
  minimum_f: 0
  description: Sum of squares.
rosenbrock:
  function: |
    var a = x[1:dim(x) - 1];
    var b = x[2:dim(x)];
    sum(100 * (b - a .^ 2) .^ 2 + (ones(dim(a)) - a) .^ 2)
  dimension: 2
  minimum_x: [1, 1]
  minimum_f: 0
schwefel:
  function: 418.9829 * dim(x) - sum(apply(x, lambda * sin(sqrt(abs(lambda)))))
  minimum_x: 420.9687
  minimum_f: "0 * d"
  parameters: [false]
linear: 2 * sum(x)
`

const jsonCatalog = `{
  "sphere": {"function": "sum(x .^ 2)", "dimension": "d", "minimum_x": "map(1..d, 0)", "minimum_f": 0},
  "step": {"source": "sum(apply(x, floor(lambda + 0.5) ^ 2))", "dimension": 3},
  "shifted": {"function": "sqrnorm(x - ones(dim(x)))", "minimum_x": 1, "parameters": [true, "shift vector"]}
}`

const tomlCatalog = `
[sphere]
function = "sum(x .^ 2)"
minimum_x = 0
minimum_f = 0

[booth]
function = "(x[1] + 2*x[2] - 7)^2 + (2*x[1] + x[2] - 5)^2"
dimension = 2
minimum_x = [1.0, 3.0]
minimum_f = 0
description = "Booth function."
`

func decodeString(t *testing.T, src string, format Format, opts ...Option) *Catalog {
	t.Helper()

	c, err := Decode(t.Context(), strings.NewReader(src), format, opts...)
	require.NoError(t, err)

	return c
}

func TestDecode_Formats(t *testing.T) {
	tests := []struct {
		format Format
		src    string
		names  []string
	}{
		{FormatYAML, yamlCatalog, []string{"linear", "rosenbrock", "schwefel", "sphere"}},
		{FormatJSON, jsonCatalog, []string{"shifted", "sphere", "step"}},
		{FormatTOML, tomlCatalog, []string{"booth", "sphere"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			c := decodeString(t, tt.src, tt.format)

			var names []string
			for name := range c.Names() {
				names = append(names, name)
			}

			assert.Equal(t, tt.names, names)
			assert.Equal(t, len(tt.names), c.Len())

			f, err := c.Lookup("sphere")
			require.NoError(t, err)

			y, err := f.Evaluate(t.Context(), []float64{1, 2, 3})
			require.NoError(t, err)
			assert.InDelta(t, 14.0, y, 0)
		})
	}
}

func TestFunction_Evaluate(t *testing.T) {
	c := decodeString(t, yamlCatalog, FormatYAML)

	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"rosenbrock", []float64{1, 1}, 0},
		{"rosenbrock", []float64{0, 0}, 1},
		{"rosenbrock", []float64{-1, 2}, 104},
		{"linear", []float64{1, 2, 3}, 12},
		{"schwefel", []float64{420.9687, 420.9687}, 0},
	}

	for _, tt := range tests {
		f, err := c.Lookup(tt.name)
		require.NoError(t, err)

		y, err := f.Evaluate(t.Context(), tt.x)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, y, 1e-3, "%s%v", tt.name, tt.x)
	}
}

func TestFunction_Dimension(t *testing.T) {
	c := decodeString(t, yamlCatalog, FormatYAML)

	f, err := c.Lookup("rosenbrock")
	require.NoError(t, err)

	d, fixed := f.Dimension()
	assert.True(t, fixed)
	assert.Equal(t, 2, d)

	_, err = f.Evaluate(t.Context(), []float64{1, 2, 3})
	require.ErrorIs(t, err, ErrDimension)

	v, ok := pkg.Attr(err, "expected")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Int64())

	f, err = c.Lookup("sphere")
	require.NoError(t, err)

	_, fixed = f.Dimension()
	assert.False(t, fixed)
}

func TestFunction_Minimum(t *testing.T) {
	c := decodeString(t, yamlCatalog, FormatYAML)

	sphere, err := c.Lookup("sphere")
	require.NoError(t, err)

	x, err := sphere.MinimumPoint(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, x)

	_, err = sphere.MinimumPoint(0)
	require.ErrorIs(t, err, ErrNeedsDimension)

	rosenbrock, err := c.Lookup("rosenbrock")
	require.NoError(t, err)

	x, err = rosenbrock.MinimumPoint(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, x)

	y, err := rosenbrock.Evaluate(t.Context(), x)
	require.NoError(t, err)

	f, err := rosenbrock.MinimumValue(0)
	require.NoError(t, err)
	assert.InDelta(t, f, y, 0)

	schwefel, err := c.Lookup("schwefel")
	require.NoError(t, err)

	f, err = schwefel.MinimumValue(5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, f, 0)

	_, ok := schwefel.Parameters()
	assert.False(t, ok)

	linear, err := c.Lookup("linear")
	require.NoError(t, err)

	_, err = linear.MinimumPoint(2)
	require.ErrorIs(t, err, ErrNoMinimum)

	_, err = linear.MinimumValue(2)
	require.ErrorIs(t, err, ErrNoMinimum)
}

func TestFunction_MinimumExpression(t *testing.T) {
	c := decodeString(t, jsonCatalog, FormatJSON)

	sphere, err := c.Lookup("sphere")
	require.NoError(t, err)

	x, err := sphere.MinimumPoint(4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, x)

	shifted, err := c.Lookup("shifted")
	require.NoError(t, err)

	p, ok := shifted.Parameters()
	assert.True(t, ok)
	assert.Equal(t, "shift vector", p)

	x, err = shifted.MinimumPoint(2)
	require.NoError(t, err)

	y, err := shifted.Evaluate(t.Context(), x)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, y, 0)
}

func TestFunction_MinimumPointDimension(t *testing.T) {
	c := decodeString(t, "pinned:\n  function: sum(x .^ 2)\n  minimum_x: [0, 0]\n", FormatYAML)

	f, err := c.Lookup("pinned")
	require.NoError(t, err)

	x, err := f.MinimumPoint(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x)

	_, err = f.MinimumPoint(3)
	require.ErrorIs(t, err, ErrMetadata)

	v, ok := pkg.Attr(err, "actual")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Int64())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		src    string
		want   error
	}{
		{"syntax", FormatJSON, `{"bad": "1 +"}`, lang.ErrSyntax},
		{"compile", FormatJSON, `{"bad": "y"}`, lang.ErrUnknownVariable},
		{"not scalar", FormatJSON, `{"bad": "x"}`, lang.ErrResultKind},
		{"no source", FormatJSON, `{"bad": {"dimension": 2}}`, ErrDefinition},
		{"bad dimension", FormatJSON, `{"bad": {"function": "1", "dimension": -1}}`, ErrDefinition},
		{"bad minimum", FormatJSON, `{"bad": {"function": "1", "minimum_f": [1]}}`, ErrDefinition},
		{"bad expression", FormatYAML, "bad:\n  function: '1'\n  minimum_f: 'd +'\n", ErrMetadata},
		{"bad entry", FormatYAML, "bad: [1, 2]\n", ErrDefinition},
		{"malformed", FormatTOML, "[bad\n", ErrLoad},
		{"unknown format", Format("ini"), "", ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(t.Context(), strings.NewReader(tt.src), tt.format)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_ErrorOrder(t *testing.T) {
	defs := map[string]Definition{
		"a": {Source: "1"},
		"b": {Source: "y"},
		"c": {Source: "z"},
	}

	for range 20 {
		_, err := New(t.Context(), defs, WithConcurrency(3))
		require.ErrorIs(t, err, ErrCompile)
		require.ErrorIs(t, err, lang.ErrUnknownVariable)

		v, ok := pkg.Attr(err, "name")
		require.True(t, ok)
		assert.Equal(t, "b", v.String())
		assert.Contains(t, err.Error(), "error while compiling function")
	}
}

func TestNew_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(ctx, map[string]Definition{"a": {Source: "1 + 2 + 3 + 4"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_CompileOptions(t *testing.T) {
	defs := map[string]Definition{"v": {Source: "x .* x"}}

	_, err := New(t.Context(), defs)
	require.ErrorIs(t, err, lang.ErrResultKind)

	c, err := New(t.Context(), defs, WithCompileOptions(lang.WithVectorResult(true)))
	require.NoError(t, err)

	f, err := c.Lookup("v")
	require.NoError(t, err)

	v, err := f.Program().EvaluateValue(t.Context(), []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, eval.KindVector, v.Kind)
	assert.Equal(t, []float64{4, 9}, v.Vector)
}

func TestLookup_NotFound(t *testing.T) {
	c := decodeString(t, tomlCatalog, FormatTOML)

	_, err := c.Lookup("pinned")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_All(t *testing.T) {
	c := decodeString(t, tomlCatalog, FormatTOML)

	var names []string
	for name, f := range c.All() {
		assert.Equal(t, name, f.Name())
		names = append(names, name)
	}

	assert.Equal(t, []string{"booth", "sphere"}, names)

	booth, err := c.Lookup("booth")
	require.NoError(t, err)
	assert.Equal(t, "Booth function.", booth.Description())
	assert.Contains(t, booth.Source(), "x[1] + 2*x[2]")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	c := decodeString(t, tomlCatalog, FormatTOML, WithMetrics(m))

	booth, err := c.Lookup("booth")
	require.NoError(t, err)

	for range 3 {
		_, err := booth.Evaluate(t.Context(), []float64{1, 3})
		require.NoError(t, err)
	}

	_, err = booth.Evaluate(t.Context(), []float64{1})
	require.Error(t, err)

	assert.InDelta(t, 4.0, testutil.ToFloat64(m.Evaluations("booth")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Failures("booth")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.Evaluations("sphere")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.json":         FormatJSON,
		"dir/b.YAML":     FormatYAML,
		"c.yml":          FormatYAML,
		"functions.toml": FormatTOML,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("functions.txt")
	require.ErrorIs(t, err, ErrFormat)
}
