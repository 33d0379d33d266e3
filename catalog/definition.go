package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Variable is the [Definition.Dimension] of functions defined for any
// dimension.
const Variable = 0

// Definition is the source form of a catalog entry.
type Definition struct {
	// Source is the program text.
	Source string `json:"function" yaml:"function" toml:"function"`
	// Dimension is the fixed input dimension, or Variable.
	Dimension int `json:"dimension,omitempty" yaml:"dimension,omitempty" toml:"dimension,omitempty"`
	// MinimumX is nil, a number, a list of numbers or an expression over d.
	MinimumX any `json:"minimum_x,omitempty" yaml:"minimum_x,omitempty" toml:"minimum_x,omitempty"`
	// MinimumF is nil, a number or an expression over d.
	MinimumF any `json:"minimum_f,omitempty" yaml:"minimum_f,omitempty" toml:"minimum_f,omitempty"`
	// Parameters describes tunable constants of the function, if any.
	Parameters string `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	// Description is free text.
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Definitions converts a decoded document, a mapping from name to either a
// source string or a definition object, into definitions.
func Definitions(doc map[string]any) (map[string]Definition, error) {
	out := make(map[string]Definition, len(doc))

	for name, v := range doc {
		def, err := definition(name, v)
		if err != nil {
			return nil, err
		}

		out[name] = def
	}

	return out, nil
}

func definition(name string, v any) (Definition, error) {
	invalid := func(reason string) error {
		return ErrDefinition.With(slog.String("name", name), slog.String("reason", reason))
	}

	if m, ok := v.(map[any]any); ok {
		conv := make(map[string]any, len(m))
		for k, e := range m {
			conv[fmt.Sprint(k)] = e
		}

		v = conv
	}

	switch v := v.(type) {
	case string:
		return Definition{Source: v}, nil

	case map[string]any:
		var def Definition

		src, ok := v["function"]
		if !ok {
			src = v["source"]
		}

		if def.Source, ok = src.(string); !ok {
			return Definition{}, invalid("missing function source")
		}

		dim, err := dimension(v["dimension"])
		if err != nil {
			return Definition{}, invalid(err.Error())
		}

		def.Dimension = dim

		if def.MinimumX, err = metadata(v["minimum_x"], true); err != nil {
			return Definition{}, invalid("minimum_x: " + err.Error())
		}

		if def.MinimumF, err = metadata(v["minimum_f"], false); err != nil {
			return Definition{}, invalid("minimum_f: " + err.Error())
		}

		if def.Parameters, err = parameters(v["parameters"]); err != nil {
			return Definition{}, invalid("parameters: " + err.Error())
		}

		if d, ok := v["description"]; ok && d != nil {
			if def.Description, ok = d.(string); !ok {
				return Definition{}, invalid("description must be text")
			}
		}

		return def, nil

	default:
		return Definition{}, invalid("expected source text or an object")
	}
}

type valueError string

func (e valueError) Error() string { return string(e) }

// number converts the numeric types produced by the JSON, YAML and TOML
// decoders.
func number(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

func dimension(v any) (int, error) {
	if v == nil {
		return Variable, nil
	}

	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "d" || s == "" {
			return Variable, nil
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, valueError("dimension must be a positive integer or \"d\"")
		}

		v = n
	}

	f, ok := number(v)
	if !ok || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, valueError("dimension must be a positive integer or \"d\"")
	}

	return int(f), nil
}

// metadata validates a minimum value. Lists are allowed only for points.
func metadata(v any, list bool) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil

	case string:
		return v, nil

	case []any:
		if !list {
			return nil, valueError("expected a number or an expression")
		}

		out := make([]float64, len(v))
		for i, e := range v {
			f, ok := number(e)
			if !ok {
				return nil, valueError("list elements must be numbers")
			}

			out[i] = f
		}

		return out, nil

	case []float64:
		if !list {
			return nil, valueError("expected a number or an expression")
		}

		return slices.Clone(v), nil

	default:
		f, ok := number(v)
		if !ok {
			return nil, valueError("expected a number, a list or an expression")
		}

		return f, nil
	}
}

// parameters accepts a description, or a [has, description] pair.
func parameters(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil

	case string:
		return v, nil

	case []any:
		if len(v) == 0 {
			return "", nil
		}

		has, ok := v[0].(bool)
		if !ok {
			return "", valueError("expected [bool, description]")
		}

		if !has {
			return "", nil
		}

		if len(v) < 2 {
			return "", valueError("missing description")
		}

		s, ok := v[1].(string)
		if !ok {
			return "", valueError("description must be text")
		}

		return s, nil

	default:
		return "", valueError("expected a description")
	}
}
