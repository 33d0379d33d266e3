package eval

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/loreleva/Bbo-functions/log"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Value is the result of an evaluation.
type Value struct {
	Kind   Kind
	Scalar float64
	Vector []float64
}

// ScalarValue returns a scalar Value.
func ScalarValue(f float64) Value { return Value{Kind: KindScalar, Scalar: f} }

// VectorValue returns a vector Value.
func VectorValue(v []float64) Value { return Value{Kind: KindVector, Vector: v} }

func (v Value) String() string {
	if v.Kind == KindVector {
		return formatVector(v.Vector)
	}

	return formatFloat(v.Scalar)
}

func (e Expr) value(f *frame) (Value, error) {
	if e.v != nil {
		vec, err := e.v.eval(f)

		return VectorValue(vec), err
	}

	s, err := e.s.eval(f)

	return ScalarValue(s), err
}

// Fold replaces e by a constant if every operand of e is constant.
// Leaves (constants, x, lambda and auxiliary references) are returned
// unchanged. Fold does not descend into operands, so a tree folds
// completely only when it is folded bottom-up as it is built. An error
// means e fails for every input.
func Fold(e Expr) (Expr, error) {
	args := e.Args()
	if e.IsZero() || e.IsConstant() || len(args) == 0 {
		return e, nil
	}

	for _, a := range args {
		if !a.IsConstant() {
			return e, nil
		}
	}

	v, err := e.value(&frame{})
	if err != nil {
		return e, err
	}

	if v.Kind == KindVector {
		return V(ConstVector(v.Vector)), nil
	}

	return S(Const(v.Scalar)), nil
}

// Aux is an auxiliary variable definition. Its value is computed once per
// evaluation, before the root, and read by [AuxScalar] or [AuxVector] nodes
// referring to its slot, which is its index in [Program.Aux].
type Aux struct {
	Name string
	Expr Expr
}

// Program is a compiled objective function: auxiliary definitions in
// declaration order followed by the result expression.
type Program struct {
	aux    []Aux
	root   Expr
	logger log.Logger
	frames sync.Pool
}

// Option configures a [Program].
type Option func(*Program)

// WithLogger sets the logger used for trace-level evaluation logging.
func WithLogger(logger log.Logger) Option {
	return func(p *Program) { p.logger = logger }
}

// NewProgram returns a program evaluating root after aux.
func NewProgram(aux []Aux, root Expr, opts ...Option) (*Program, error) {
	if root.IsZero() {
		return nil, ErrProgram.With(slog.String("reason", "missing result expression"))
	}

	for _, a := range aux {
		if a.Expr.IsZero() {
			return nil, ErrProgram.With(
				slog.String("reason", "missing definition"),
				slog.String("name", a.Name),
			)
		}
	}

	for i, a := range aux {
		if err := checkSlots(a.Expr, aux[:i]); err != nil {
			return nil, err.With(slog.String("name", a.Name))
		}
	}

	if err := checkSlots(root, aux); err != nil {
		return nil, err
	}

	p := &Program{aux: append([]Aux(nil), aux...), root: root}

	for _, opt := range opts {
		opt(p)
	}

	n := len(p.aux)
	p.frames.New = func() any { return &frame{aux: make([]Value, n)} }

	return p, nil
}

// checkSlots reports an auxiliary reference in e that does not name one of
// the definitions in visible or that disagrees with its kind.
func checkSlots(e Expr, visible []Aux) *pkg.Error {
	if slot, ok := e.auxSlot(); ok {
		if slot < 0 || slot >= len(visible) {
			return ErrProgram.With(
				slog.String("reason", "undefined auxiliary slot"),
				slog.String("reference", e.Op()),
				slog.Int("slot", slot),
			)
		}

		if visible[slot].Expr.Kind() != e.Kind() {
			return ErrProgram.With(
				slog.String("reason", "auxiliary kind mismatch"),
				slog.String("reference", e.Op()),
				slog.Int("slot", slot),
			)
		}

		return nil
	}

	for _, a := range e.Args() {
		if err := checkSlots(a, visible); err != nil {
			return err
		}
	}

	return nil
}

// Aux returns the auxiliary definitions of p.
func (p *Program) Aux() []Aux { return append([]Aux(nil), p.aux...) }

// Root returns the result expression of p.
func (p *Program) Root() Expr { return p.root }

// Kind returns the kind of the result of p.
func (p *Program) Kind() Kind { return p.root.Kind() }

// Size returns the number of nodes in p.
func (p *Program) Size() int {
	n := p.root.Size()
	for _, a := range p.aux {
		n += a.Expr.Size()
	}

	return n
}

// String renders p as one line per auxiliary definition followed by the
// result expression.
func (p *Program) String() string {
	var sb strings.Builder

	for _, a := range p.aux {
		sb.WriteString(a.Name)
		sb.WriteString(" = ")
		a.Expr.write(&sb)
		sb.WriteByte('\n')
	}

	p.root.write(&sb)

	return sb.String()
}

// Evaluate computes the scalar result of p at x. It fails with
// [ErrNotScalar] if the result of p is a vector.
func (p *Program) Evaluate(ctx context.Context, x []float64) (float64, error) {
	if p.root.Kind() != KindScalar {
		return 0, fail(ErrNotScalar, slog.String("kind", p.root.Kind().String()))
	}

	v, err := p.run(ctx, x)

	return v.Scalar, err
}

// EvaluateValue computes the result of p at x, which may be a vector.
func (p *Program) EvaluateValue(ctx context.Context, x []float64) (Value, error) {
	v, err := p.run(ctx, x)
	if err != nil {
		return Value{}, err
	}

	if v.Kind == KindVector {
		v.Vector = append(make([]float64, 0, len(v.Vector)), v.Vector...)
	}

	return v, nil
}

func (p *Program) run(ctx context.Context, x []float64) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, err
	}

	f, _ := p.frames.Get().(*frame)
	f.x = x
	f.lambda = 0

	defer func() {
		f.x = nil
		clear(f.aux)
		p.frames.Put(f)
	}()

	for i, a := range p.aux {
		v, err := a.Expr.value(f)
		if err != nil {
			return Value{}, err
		}

		f.aux[i] = v
	}

	v, err := p.root.value(f)
	if err != nil {
		p.logger.DebugContext(ctx, "evaluation failed",
			slog.Int("dimension", len(x)),
			slog.Any("error", err),
		)

		return Value{}, err
	}

	if p.logger.Tracing() {
		p.logger.TraceContext(ctx, "evaluated",
			slog.Int("dimension", len(x)),
			slog.String("result", v.String()),
		)
	}

	return v, nil
}
