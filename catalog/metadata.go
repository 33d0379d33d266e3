package catalog

import (
	"log/slog"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// minimum is a compiled minimum_x or minimum_f value.
type minimum struct {
	known   bool
	scalar  float64
	list    []float64
	isList  bool
	program *vm.Program
	source  string
}

// compileMinimum prepares v, as validated by metadata, for evaluation.
func compileMinimum(v any) (minimum, error) {
	switch v := v.(type) {
	case nil:
		return minimum{}, nil

	case float64:
		return minimum{known: true, scalar: v}, nil

	case []float64:
		return minimum{known: true, isList: true, list: v}, nil

	case string:
		program, err := expr.Compile(v, expr.Env(map[string]any{"d": 0}))
		if err != nil {
			return minimum{}, ErrMetadata.Wrap(err).With(slog.String("expr", v))
		}

		return minimum{known: true, program: program, source: v}, nil

	default:
		return minimum{}, ErrMetadata.With(slog.String("type", "unsupported"))
	}
}

// value evaluates m for dimension d: a number or a list of numbers.
func (m minimum) value(d int) (float64, []float64, bool, error) {
	switch {
	case !m.known:
		return 0, nil, false, ErrNoMinimum
	case m.program == nil:
		return m.scalar, slices.Clone(m.list), m.isList, nil
	}

	out, err := expr.Run(m.program, map[string]any{"d": d})
	if err != nil {
		return 0, nil, false, ErrMetadata.Wrap(err).With(slog.String("expr", m.source))
	}

	if list, ok := out.([]any); ok {
		v, err := metadata(list, true)
		if err != nil {
			return 0, nil, false, ErrMetadata.Wrap(err).With(slog.String("expr", m.source))
		}

		vec, _ := v.([]float64)

		return 0, vec, true, nil
	}

	f, ok := number(out)
	if !ok {
		return 0, nil, false, ErrMetadata.With(
			slog.String("expr", m.source),
			slog.String("reason", "result is not a number or a list"),
		)
	}

	return f, nil, false, nil
}
