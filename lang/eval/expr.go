// Package eval is the evaluation runtime of compiled objective functions.
//
// A compiled expression is a tree of [Scalar] and [Vector] nodes. Every
// node knows its result kind statically: constructors such as [Inner] take
// and return the concrete node types, so an ill-typed tree cannot be built.
// [Expr] is the tagged union of the two used where the kind is only known
// while compiling.
//
// Nodes are immutable once built. Per-call state (the input vector, the
// bound lambda and the cached auxiliary values) lives in a frame owned by
// [Program.Evaluate], which makes a Program safe for concurrent use.
package eval

import (
	"strconv"
	"strings"
)

// Kind is the result type of an expression.
type Kind uint8

const (
	KindScalar Kind = iota
	KindVector
)

func (k Kind) String() string {
	if k == KindVector {
		return "vector"
	}

	return "scalar"
}

// frame holds the state of one evaluation.
type frame struct {
	x      []float64
	lambda float64
	aux    []Value
}

// Scalar is a node producing a real number.
type Scalar struct {
	op    string
	args  []Expr
	konst bool
	value float64
	slot  int
	ref   bool
	eval  func(*frame) (float64, error)
}

// Vector is a node producing a sequence of real numbers.
type Vector struct {
	op    string
	args  []Expr
	konst bool
	value []float64
	slot  int
	ref   bool
	eval  func(*frame) ([]float64, error)
}

// Op names the operation s performs, "const" for constants.
func (s *Scalar) Op() string { return s.op }

// IsConstant reports whether s is a constant.
func (s *Scalar) IsConstant() bool { return s.konst }

// Value returns the value of a constant node.
func (s *Scalar) Value() float64 { return s.value }

// Op names the operation v performs, "const" for constants.
func (v *Vector) Op() string { return v.op }

// IsConstant reports whether v is a constant.
func (v *Vector) IsConstant() bool { return v.konst }

// Value returns a copy of the value of a constant node.
func (v *Vector) Value() []float64 { return append([]float64(nil), v.value...) }

// Expr holds exactly one of a *Scalar or a *Vector.
type Expr struct {
	s *Scalar
	v *Vector
}

// S wraps a scalar node.
func S(s *Scalar) Expr { return Expr{s: s} }

// V wraps a vector node.
func V(v *Vector) Expr { return Expr{v: v} }

// Kind returns the result kind of e.
func (e Expr) Kind() Kind {
	if e.v != nil {
		return KindVector
	}

	return KindScalar
}

// IsZero reports whether e holds no node.
func (e Expr) IsZero() bool { return e.s == nil && e.v == nil }

// Scalar returns the scalar node of e, or nil if e is a vector.
func (e Expr) Scalar() *Scalar { return e.s }

// Vector returns the vector node of e, or nil if e is a scalar.
func (e Expr) Vector() *Vector { return e.v }

// IsConstant reports whether e is a constant node.
func (e Expr) IsConstant() bool {
	switch {
	case e.s != nil:
		return e.s.konst
	case e.v != nil:
		return e.v.konst
	default:
		return false
	}
}

// Op names the operation of e.
func (e Expr) Op() string {
	switch {
	case e.s != nil:
		return e.s.op
	case e.v != nil:
		return e.v.op
	default:
		return ""
	}
}

// Args returns the operands of e.
func (e Expr) Args() []Expr {
	switch {
	case e.s != nil:
		return e.s.args
	case e.v != nil:
		return e.v.args
	default:
		return nil
	}
}

// auxSlot returns the slot e reads if e is an auxiliary reference.
func (e Expr) auxSlot() (int, bool) {
	switch {
	case e.s != nil:
		return e.s.slot, e.s.ref
	case e.v != nil:
		return e.v.slot, e.v.ref
	default:
		return 0, false
	}
}

// Size returns the number of nodes in the tree rooted at e.
func (e Expr) Size() int {
	if e.IsZero() {
		return 0
	}

	n := 1
	for _, a := range e.Args() {
		n += a.Size()
	}

	return n
}

// String renders e as an s-expression, for example (+ x (const [1 2])).
func (e Expr) String() string {
	var sb strings.Builder

	e.write(&sb)

	return sb.String()
}

func (e Expr) write(sb *strings.Builder) {
	switch {
	case e.IsZero():
		sb.WriteString("<nil>")

		return

	case e.IsConstant():
		if e.s != nil {
			sb.WriteString(formatFloat(e.s.value))
		} else {
			sb.WriteString(formatVector(e.v.value))
		}

		return
	}

	args := e.Args()
	if len(args) == 0 {
		sb.WriteString(e.Op())

		return
	}

	sb.WriteByte('(')
	sb.WriteString(e.Op())

	for _, a := range args {
		sb.WriteByte(' ')
		a.write(sb)
	}

	sb.WriteByte(')')
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func formatVector(v []float64) string {
	var sb strings.Builder

	sb.WriteByte('[')

	for i, f := range v {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(formatFloat(f))
	}

	sb.WriteByte(']')

	return sb.String()
}

// Const returns a scalar constant.
func Const(f float64) *Scalar {
	return &Scalar{
		op: "const", konst: true, value: f,
		eval: func(*frame) (float64, error) { return f, nil },
	}
}

// ConstVector returns a vector constant holding a copy of v.
func ConstVector(v []float64) *Vector {
	v = append(make([]float64, 0, len(v)), v...)

	return &Vector{
		op: "const", konst: true, value: v,
		eval: func(*frame) ([]float64, error) { return v, nil },
	}
}

// Input returns the node reading the evaluation input x.
func Input() *Vector {
	return &Vector{
		op:   "x",
		eval: func(f *frame) ([]float64, error) { return f.x, nil },
	}
}

// Lambda returns the node reading the element bound by the innermost
// enclosing [Map].
func Lambda() *Scalar {
	return &Scalar{
		op:   "lambda",
		eval: func(f *frame) (float64, error) { return f.lambda, nil },
	}
}

// AuxScalar returns a node reading the cached scalar auxiliary variable in
// slot of the program it belongs to.
func AuxScalar(name string, slot int) *Scalar {
	return &Scalar{
		op:   name,
		slot: slot,
		ref:  true,
		eval: func(f *frame) (float64, error) { return f.aux[slot].Scalar, nil },
	}
}

// AuxVector returns a node reading the cached vector auxiliary variable in
// slot of the program it belongs to.
func AuxVector(name string, slot int) *Vector {
	return &Vector{
		op:   name,
		slot: slot,
		ref:  true,
		eval: func(f *frame) ([]float64, error) { return f.aux[slot].Vector, nil },
	}
}
