package repl

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/loreleva/Bbo-functions/catalog"
	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
)

// definition is one auxiliary variable entered in the session.
type definition struct {
	name string
	text string // canonical "var name = body;" form
}

// Session holds the auxiliary variables and the input point shared by the
// expressions evaluated in a REPL.
type Session struct {
	defs    []definition
	point   []float64
	catalog *catalog.Catalog
	logger  log.Logger
}

// NewSession creates an empty session evaluating at point.
func NewSession(point []float64, c *catalog.Catalog, logger log.Logger) *Session {
	return &Session{point: slices.Clone(point), catalog: c, logger: logger}
}

// IsDefinition reports whether line starts with the var keyword.
func IsDefinition(line string) bool {
	tokens, err := lang.Scan(line)

	return err == nil && tokens.Len() > 0 && tokens.At(0).Text == lang.KeywordVar
}

// Source returns the definitions of s as program text.
func (s *Session) Source() string {
	var sb strings.Builder

	for _, d := range s.defs {
		sb.WriteString(d.text)
	}

	return sb.String()
}

// Names returns the names of the defined variables in definition order.
func (s *Session) Names() []string {
	names := make([]string, len(s.defs))
	for i, d := range s.defs {
		names[i] = d.name
	}

	return names
}

// Point returns the current input point.
func (s *Session) Point() []float64 { return slices.Clone(s.point) }

// Catalog returns the function catalog of s, which may be nil.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Define adds the auxiliary variable definition in line. A variable that
// already exists is replaced in place.
func (s *Session) Define(ctx context.Context, line string) (string, error) {
	canonical, err := lang.FormatString(ctx, line+"\n0")
	if err != nil {
		return "", err
	}

	root, err := lang.Parse(ctx, canonical)
	if err != nil {
		return "", err
	}

	if root.Len() != 2 || root.Child(0).Label != lang.LabelAux {
		return "", ErrNotDefinition.With(slog.String("input", line))
	}

	d := definition{
		name: root.Child(0).Child(0).Value,
		text: strings.TrimSuffix(canonical, "0\n"),
	}

	defs := slices.Clone(s.defs)
	if i := slices.IndexFunc(defs, func(e definition) bool { return e.name == d.name }); i >= 0 {
		defs[i] = d
	} else {
		defs = append(defs, d)
	}

	if err := validate(ctx, defs); err != nil {
		return "", err
	}

	s.defs = defs

	s.logger.TraceContext(ctx, "repl define", slog.String("name", d.name))

	return d.name, nil
}

// Replace discards every definition and defines those in src, which must
// contain only auxiliary variable definitions.
func (s *Session) Replace(ctx context.Context, src string) error {
	canonical, err := lang.FormatString(ctx, src+"\n0")
	if err != nil {
		return err
	}

	root, err := lang.Parse(ctx, canonical)
	if err != nil {
		return err
	}

	// The canonical form prints one definition per line.
	lines := strings.SplitAfter(canonical, "\n")
	defs := make([]definition, 0, root.Len()-1)

	for i, n := range root.Children[:root.Len()-1] {
		defs = append(defs, definition{name: n.Child(0).Value, text: lines[i]})
	}

	if err := validate(ctx, defs); err != nil {
		return err
	}

	s.defs = defs

	return nil
}

func validate(ctx context.Context, defs []definition) error {
	var sb strings.Builder

	for _, d := range defs {
		sb.WriteString(d.text)
	}

	sb.WriteString("0")

	_, err := lang.CompileCached(ctx, sb.String())

	return err
}

// Evaluate compiles expr after the session definitions and evaluates it at
// the session point.
func (s *Session) Evaluate(ctx context.Context, expr string) (eval.Value, error) {
	p, err := lang.CompileCached(ctx, s.Source()+expr,
		lang.WithVectorResult(true),
		lang.WithLogger(s.logger),
	)
	if err != nil {
		return eval.Value{}, err
	}

	return p.EvaluateValue(ctx, s.point)
}

// EvaluateFunction evaluates the named catalog function at the session
// point.
func (s *Session) EvaluateFunction(ctx context.Context, name string) (float64, error) {
	if s.catalog == nil {
		return 0, ErrNoCatalog
	}

	f, err := s.catalog.Lookup(name)
	if err != nil {
		return 0, err
	}

	return f.Evaluate(ctx, s.point)
}

// SetPoint parses args as the new input point. Numbers are separated by
// spaces or commas, or given as one JSON array.
func (s *Session) SetPoint(args string) error {
	p, err := ParsePoint(args)
	if err != nil {
		return err
	}

	s.point = p

	return nil
}

// Reset removes every definition.
func (s *Session) Reset() { s.defs = nil }

// ParsePoint parses a point written as numbers separated by spaces or
// commas, or as a JSON array.
func ParsePoint(args string) ([]float64, error) {
	args = strings.TrimSpace(args)

	if strings.HasPrefix(args, "[") {
		var p []float64
		if err := json.Unmarshal([]byte(args), &p); err != nil {
			return nil, ErrPoint.Wrap(err)
		}

		return p, nil
	}

	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	p := make([]float64, len(fields))

	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, ErrPoint.Wrap(err).With(slog.Int("index", i+1))
		}

		p[i] = v
	}

	return p, nil
}

// Describe renders the metadata of the named catalog function. Minimum
// values are computed for the dimension of the session point.
func (s *Session) Describe(name string) (string, error) {
	if s.catalog == nil {
		return "", ErrNoCatalog
	}

	f, err := s.catalog.Lookup(name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("  function:  " + strings.TrimSpace(f.Source()) + "\n")

	if d, ok := f.Dimension(); ok {
		sb.WriteString("  dimension: " + strconv.Itoa(d) + "\n")
	} else {
		sb.WriteString("  dimension: any\n")
	}

	if x, err := f.MinimumPoint(len(s.point)); err == nil {
		sb.WriteString("  minimum x: " + eval.VectorValue(x).String() + "\n")
	}

	if y, err := f.MinimumValue(len(s.point)); err == nil {
		sb.WriteString("  minimum f: " + eval.ScalarValue(y).String() + "\n")
	}

	if p, ok := f.Parameters(); ok {
		sb.WriteString("  parameters: " + p + "\n")
	}

	if d := f.Description(); d != "" {
		sb.WriteString("  " + d + "\n")
	}

	return sb.String(), nil
}
