package eval

import (
	"log/slog"
	"math"
	"slices"
)

func scalar(op string, fn func(*frame) (float64, error), args ...Expr) *Scalar {
	return &Scalar{op: op, args: args, eval: fn}
}

func vector(op string, fn func(*frame) ([]float64, error), args ...Expr) *Vector {
	return &Vector{op: op, args: args, eval: fn}
}

// scalar2 evaluates a and b in order.
func scalar2(f *frame, a, b *Scalar) (float64, float64, error) {
	x, err := a.eval(f)
	if err != nil {
		return 0, 0, err
	}

	y, err := b.eval(f)

	return x, y, err
}

func vector2(f *frame, a, b *Vector) ([]float64, []float64, error) {
	x, err := a.eval(f)
	if err != nil {
		return nil, nil, err
	}

	y, err := b.eval(f)

	return x, y, err
}

func mapVector(v []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = fn(x)
	}

	return out
}

func zip(op string, a, b []float64, fn func(x, y float64) float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, mismatch(op, len(a), len(b))
	}

	out := make([]float64, len(a))
	for i := range a {
		out[i] = fn(a[i], b[i])
	}

	return out, nil
}

// Neg returns -a.
func Neg(a *Scalar) *Scalar {
	return scalar("neg", func(f *frame) (float64, error) {
		x, err := a.eval(f)

		return -x, err
	}, S(a))
}

// NegVector returns the elementwise negation of a.
func NegVector(a *Vector) *Vector {
	return vector("neg", func(f *frame) ([]float64, error) {
		x, err := a.eval(f)
		if err != nil {
			return nil, err
		}

		return mapVector(x, func(v float64) float64 { return -v }), nil
	}, V(a))
}

// Add returns a+b.
func Add(a, b *Scalar) *Scalar {
	return scalar("+", func(f *frame) (float64, error) {
		x, y, err := scalar2(f, a, b)

		return x + y, err
	}, S(a), S(b))
}

// AddVector returns the elementwise sum of two vectors of equal length.
func AddVector(a, b *Vector) *Vector {
	return vector("+", func(f *frame) ([]float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return nil, err
		}

		return zip("+", x, y, func(p, q float64) float64 { return p + q })
	}, V(a), V(b))
}

// Sub returns a-b.
func Sub(a, b *Scalar) *Scalar {
	return scalar("-", func(f *frame) (float64, error) {
		x, y, err := scalar2(f, a, b)

		return x - y, err
	}, S(a), S(b))
}

// SubVector returns the elementwise difference of two vectors of equal
// length.
func SubVector(a, b *Vector) *Vector {
	return vector("-", func(f *frame) ([]float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return nil, err
		}

		return zip("-", x, y, func(p, q float64) float64 { return p - q })
	}, V(a), V(b))
}

// Mul returns a*b.
func Mul(a, b *Scalar) *Scalar {
	return scalar("*", func(f *frame) (float64, error) {
		x, y, err := scalar2(f, a, b)

		return x * y, err
	}, S(a), S(b))
}

// Scale returns the vector b scaled by a.
func Scale(a *Scalar, b *Vector) *Vector {
	return vector("*", func(f *frame) ([]float64, error) {
		k, err := a.eval(f)
		if err != nil {
			return nil, err
		}

		v, err := b.eval(f)
		if err != nil {
			return nil, err
		}

		return mapVector(v, func(e float64) float64 { return k * e }), nil
	}, S(a), V(b))
}

// ScaleRight returns the vector a scaled by b.
func ScaleRight(a *Vector, b *Scalar) *Vector {
	return vector("*", func(f *frame) ([]float64, error) {
		v, err := a.eval(f)
		if err != nil {
			return nil, err
		}

		k, err := b.eval(f)
		if err != nil {
			return nil, err
		}

		return mapVector(v, func(e float64) float64 { return e * k }), nil
	}, V(a), S(b))
}

// Inner returns the inner product of two vectors of equal length.
func Inner(a, b *Vector) *Scalar {
	return scalar("*", func(f *frame) (float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return 0, err
		}

		if len(x) != len(y) {
			return 0, mismatch("*", len(x), len(y))
		}

		var sum float64
		for i := range x {
			sum += x[i] * y[i]
		}

		return sum, nil
	}, V(a), V(b))
}

// Div returns a/b.
func Div(a, b *Scalar) *Scalar {
	return scalar("/", func(f *frame) (float64, error) {
		x, y, err := scalar2(f, a, b)

		return x / y, err
	}, S(a), S(b))
}

// DivVector returns every element of a divided by b.
func DivVector(a *Vector, b *Scalar) *Vector {
	return vector("/", func(f *frame) ([]float64, error) {
		v, err := a.eval(f)
		if err != nil {
			return nil, err
		}

		k, err := b.eval(f)
		if err != nil {
			return nil, err
		}

		return mapVector(v, func(e float64) float64 { return e / k }), nil
	}, V(a), S(b))
}

// Pow returns a raised to the power b.
func Pow(a, b *Scalar) *Scalar {
	return scalar("^", func(f *frame) (float64, error) {
		x, y, err := scalar2(f, a, b)

		return math.Pow(x, y), err
	}, S(a), S(b))
}

// ElemMul returns the elementwise product of two vectors of equal length.
func ElemMul(a, b *Vector) *Vector {
	return vector(".*", func(f *frame) ([]float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return nil, err
		}

		return zip(".*", x, y, func(p, q float64) float64 { return p * q })
	}, V(a), V(b))
}

// ElemDiv returns the elementwise quotient of two vectors of equal length.
func ElemDiv(a, b *Vector) *Vector {
	return vector("./", func(f *frame) ([]float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return nil, err
		}

		return zip("./", x, y, func(p, q float64) float64 { return p / q })
	}, V(a), V(b))
}

// ElemPow raises every element of a to the power b.
func ElemPow(a *Vector, b *Scalar) *Vector {
	return vector(".^", func(f *frame) ([]float64, error) {
		v, err := a.eval(f)
		if err != nil {
			return nil, err
		}

		k, err := b.eval(f)
		if err != nil {
			return nil, err
		}

		return mapVector(v, func(e float64) float64 { return math.Pow(e, k) }), nil
	}, V(a), S(b))
}

// ElemPowVector raises every element of a to the power of the matching
// element of b.
func ElemPowVector(a, b *Vector) *Vector {
	return vector(".^", func(f *frame) ([]float64, error) {
		x, y, err := vector2(f, a, b)
		if err != nil {
			return nil, err
		}

		return zip(".^", x, y, math.Pow)
	}, V(a), V(b))
}

// operands keys the binary operator table.
type operands struct {
	op       string
	lhs, rhs Kind
}

var binary = map[operands]func(l, r Expr) Expr{
	{"+", KindScalar, KindScalar}: func(l, r Expr) Expr { return S(Add(l.s, r.s)) },
	{"+", KindVector, KindVector}: func(l, r Expr) Expr { return V(AddVector(l.v, r.v)) },
	{"-", KindScalar, KindScalar}: func(l, r Expr) Expr { return S(Sub(l.s, r.s)) },
	{"-", KindVector, KindVector}: func(l, r Expr) Expr { return V(SubVector(l.v, r.v)) },

	{"*", KindScalar, KindScalar}: func(l, r Expr) Expr { return S(Mul(l.s, r.s)) },
	{"*", KindScalar, KindVector}: func(l, r Expr) Expr { return V(Scale(l.s, r.v)) },
	{"*", KindVector, KindScalar}: func(l, r Expr) Expr { return V(ScaleRight(l.v, r.s)) },
	{"*", KindVector, KindVector}: func(l, r Expr) Expr { return S(Inner(l.v, r.v)) },

	{"/", KindScalar, KindScalar}: func(l, r Expr) Expr { return S(Div(l.s, r.s)) },
	{"/", KindVector, KindScalar}: func(l, r Expr) Expr { return V(DivVector(l.v, r.s)) },

	{"^", KindScalar, KindScalar}: func(l, r Expr) Expr { return S(Pow(l.s, r.s)) },

	{".*", KindVector, KindVector}: func(l, r Expr) Expr { return V(ElemMul(l.v, r.v)) },
	{"./", KindVector, KindVector}: func(l, r Expr) Expr { return V(ElemDiv(l.v, r.v)) },
	{".^", KindVector, KindScalar}: func(l, r Expr) Expr { return V(ElemPow(l.v, r.s)) },
	{".^", KindVector, KindVector}: func(l, r Expr) Expr { return V(ElemPowVector(l.v, r.v)) },
}

// Binary builds the node for lhs op rhs. It reports false if op is not
// defined for the kinds of its operands.
func Binary(op string, lhs, rhs Expr) (Expr, bool) {
	if lhs.IsZero() || rhs.IsZero() {
		return Expr{}, false
	}

	build, ok := binary[operands{op, lhs.Kind(), rhs.Kind()}]
	if !ok {
		return Expr{}, false
	}

	return build(lhs, rhs), true
}

// Negate builds the node for -e.
func Negate(e Expr) Expr {
	if e.v != nil {
		return V(NegVector(e.v))
	}

	return S(Neg(e.s))
}

// MaxLength bounds the size of vectors built by [Fill] and [Count].
var MaxLength = 1 << 24

func length(f *frame, size *Scalar) (int, error) {
	s, err := size.eval(f)
	if err != nil {
		return 0, err
	}

	n := math.Floor(s)

	switch {
	case !(n >= 0):
		return 0, fail(ErrSize, slog.Float64("size", s))
	case n > float64(MaxLength):
		return 0, fail(ErrTooLarge, slog.Float64("size", s), slog.Int("limit", MaxLength))
	}

	return int(n), nil
}

// Fill returns a vector of floor(size) copies of value. name labels the
// node.
func Fill(name string, size *Scalar, value float64) *Vector {
	return vector(name, func(f *frame) ([]float64, error) {
		n, err := length(f, size)
		if err != nil {
			return nil, err
		}

		out := make([]float64, n)
		if value != 0 {
			for i := range out {
				out[i] = value
			}
		}

		return out, nil
	}, S(size))
}

// Count returns the vector 1, 2, ..., floor(size).
func Count(size *Scalar) *Vector {
	return vector("range", func(f *frame) ([]float64, error) {
		n, err := length(f, size)
		if err != nil {
			return nil, err
		}

		out := make([]float64, n)
		for i := range out {
			out[i] = float64(i + 1)
		}

		return out, nil
	}, S(size))
}

// Dim returns the length of a.
func Dim(a *Vector) *Scalar {
	return scalar("dim", func(f *frame) (float64, error) {
		v, err := a.eval(f)

		return float64(len(v)), err
	}, V(a))
}

// reduce builds an aggregate over a vector.
func reduce(name string, a *Vector, fn func([]float64) (float64, error)) *Scalar {
	return scalar(name, func(f *frame) (float64, error) {
		v, err := a.eval(f)
		if err != nil {
			return 0, err
		}

		return fn(v)
	}, V(a))
}

func extreme(name string, better func(a, b float64) bool) func([]float64) (float64, error) {
	return func(v []float64) (float64, error) {
		if len(v) == 0 {
			return 0, fail(ErrEmpty, slog.String("function", name))
		}

		r := v[0]
		for _, e := range v[1:] {
			if better(e, r) {
				r = e
			}
		}

		return r, nil
	}
}

var reducers = map[string]func([]float64) (float64, error){
	"sum": func(v []float64) (float64, error) {
		var r float64
		for _, e := range v {
			r += e
		}

		return r, nil
	},
	"prod": func(v []float64) (float64, error) {
		r := 1.0
		for _, e := range v {
			r *= e
		}

		return r, nil
	},
	"norm": func(v []float64) (float64, error) {
		var r float64
		for _, e := range v {
			r += e * e
		}

		return math.Sqrt(r), nil
	},
	"sqrnorm": func(v []float64) (float64, error) {
		var r float64
		for _, e := range v {
			r += e * e
		}

		return r, nil
	},
	"min": extreme("min", func(a, b float64) bool { return a < b }),
	"max": extreme("max", func(a, b float64) bool { return a > b }),
}

// Reduce returns the aggregate name (sum, prod, norm, sqrnorm, min or max)
// of a. It reports false for an unknown aggregate.
func Reduce(name string, a *Vector) (*Scalar, bool) {
	fn, ok := reducers[name]
	if !ok {
		return nil, false
	}

	return reduce(name, a, fn), true
}

var unary = map[string]func(float64) float64{
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": func(x float64) float64 { return math.Floor(x + 0.5) },
	"sqr":   func(x float64) float64 { return x * x },
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
}

// Apply returns the unary math function name applied to a. It reports
// false for an unknown function.
func Apply(name string, a *Scalar) (*Scalar, bool) {
	fn, ok := unary[name]
	if !ok {
		return nil, false
	}

	return scalar(name, func(f *frame) (float64, error) {
		x, err := a.eval(f)

		return fn(x), err
	}, S(a)), true
}

// Call builds the node for the built-in function name applied to arg,
// choosing the overload by the kind of arg. It reports false if name has
// no overload for that kind.
func Call(name string, arg Expr) (Expr, bool) {
	switch arg.Kind() {
	case KindScalar:
		switch name {
		case "zeros":
			return V(Fill(name, arg.s, 0)), true
		case "ones":
			return V(Fill(name, arg.s, 1)), true
		case "range":
			return V(Count(arg.s)), true
		}

		s, ok := Apply(name, arg.s)

		return S(s), ok

	default:
		if name == "dim" {
			return S(Dim(arg.v)), true
		}

		s, ok := Reduce(name, arg.v)

		return S(s), ok
	}
}

// Signature describes one overload of a built-in function.
type Signature struct {
	Name   string
	Arg    Kind
	Result Kind
}

func (s Signature) String() string {
	return s.Name + "(" + s.Arg.String() + ") " + s.Result.String()
}

// Functions returns the overloads of every built-in function sorted by
// name.
func Functions() []Signature {
	out := []Signature{
		{"zeros", KindScalar, KindVector},
		{"ones", KindScalar, KindVector},
		{"range", KindScalar, KindVector},
		{"dim", KindVector, KindScalar},
	}

	for name := range unary {
		out = append(out, Signature{name, KindScalar, KindScalar})
	}

	for name := range reducers {
		out = append(out, Signature{name, KindVector, KindScalar})
	}

	slices.SortFunc(out, func(a, b Signature) int {
		if a.Name < b.Name {
			return -1
		}

		if a.Name > b.Name {
			return 1
		}

		return int(a.Arg) - int(b.Arg)
	})

	return out
}

// FunctionNames returns the distinct built-in function names, sorted.
func FunctionNames() []string {
	var names []string

	for _, s := range Functions() {
		if len(names) == 0 || names[len(names)-1] != s.Name {
			names = append(names, s.Name)
		}
	}

	return names
}

// Index returns the element of v at the 1-based position floor(i).
func Index(v *Vector, i *Scalar) *Scalar {
	return scalar("index", func(f *frame) (float64, error) {
		vec, err := v.eval(f)
		if err != nil {
			return 0, err
		}

		idx, err := i.eval(f)
		if err != nil {
			return 0, err
		}

		n := math.Floor(idx)
		if !(n >= 1 && n <= float64(len(vec))) {
			return 0, fail(ErrIndex, slog.Float64("index", idx), slog.Int("length", len(vec)))
		}

		return vec[int(n)-1], nil
	}, V(v), S(i))
}

// Range returns the elements of v from the 1-based positions floor(first)
// to floor(last), both inclusive. An empty range (last = first-1) is
// allowed.
func Range(v *Vector, first, last *Scalar) *Vector {
	return vector("slice", func(f *frame) ([]float64, error) {
		vec, err := v.eval(f)
		if err != nil {
			return nil, err
		}

		lo, hi, err := scalar2(f, first, last)
		if err != nil {
			return nil, err
		}

		a, b := math.Floor(lo), math.Floor(hi)
		if !(a >= 1 && b <= float64(len(vec)) && b-a+1 >= 0) {
			return nil, fail(ErrRange,
				slog.Float64("first", lo),
				slog.Float64("last", hi),
				slog.Int("length", len(vec)),
			)
		}

		return vec[int(a)-1 : int(b) : int(b)], nil
	}, V(v), S(first), S(last))
}

// Concat concatenates items; a scalar contributes one element and a vector
// all of its elements.
func Concat(items ...Expr) *Vector {
	if len(items) == 0 {
		return ConstVector(nil)
	}

	return vector("concat", func(f *frame) ([]float64, error) {
		out := make([]float64, 0, len(items))

		for _, it := range items {
			if it.v != nil {
				v, err := it.v.eval(f)
				if err != nil {
					return nil, err
				}

				out = append(out, v...)

				continue
			}

			s, err := it.s.eval(f)
			if err != nil {
				return nil, err
			}

			out = append(out, s)
		}

		return out, nil
	}, items...)
}

// Map returns v with body applied to every element, where body reads the
// element through [Lambda].
func Map(v *Vector, body *Scalar) *Vector {
	return vector("apply", func(f *frame) ([]float64, error) {
		vec, err := v.eval(f)
		if err != nil {
			return nil, err
		}

		saved := f.lambda
		defer func() { f.lambda = saved }()

		out := make([]float64, len(vec))

		for i, e := range vec {
			f.lambda = e

			if out[i], err = body.eval(f); err != nil {
				return nil, err
			}
		}

		return out, nil
	}, V(v), S(body))
}
