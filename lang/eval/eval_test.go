package eval

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
)

func program(t testing.TB, root Expr, aux ...Aux) *Program {
	t.Helper()

	p, err := NewProgram(aux, root)
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func value(t *testing.T, root Expr, x ...float64) Value {
	t.Helper()

	v, err := program(t, root).EvaluateValue(t.Context(), x)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", root, err)
	}

	return v
}

func vec(v ...float64) *Vector { return ConstVector(v) }

func TestOperators(t *testing.T) {
	x := Input()

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"add", S(Add(Const(1), Const(2))), "3"},
		{"sub vector", V(SubVector(x, vec(1, 1))), "[2 4]"},
		{"neg vector", V(NegVector(x)), "[-3 -5]"},
		{"scale", V(Scale(Const(2), x)), "[6 10]"},
		{"scale right", V(ScaleRight(x, Const(-1))), "[-3 -5]"},
		{"inner", S(Inner(x, vec(3, 4))), "29"},
		{"div vector", V(DivVector(x, Const(2))), "[1.5 2.5]"},
		{"pow", S(Pow(Const(2), Const(10))), "1024"},
		{"elem mul", V(ElemMul(x, vec(2, 3))), "[6 15]"},
		{"elem div", V(ElemDiv(x, vec(3, 5))), "[1 1]"},
		{"elem pow scalar", V(ElemPow(x, Const(2))), "[9 25]"},
		{"elem pow vector", V(ElemPowVector(vec(2, 3), vec(3, 2))), "[8 9]"},
		{"dim", S(Dim(x)), "2"},
		{"zeros", V(Fill("zeros", Const(2.9), 0)), "[0 0]"},
		{"ones", V(Fill("ones", Const(3), 1)), "[1 1 1]"},
		{"range", V(Count(Const(4))), "[1 2 3 4]"},
		{"index floors", S(Index(x, Const(2.7))), "5"},
		{"slice", V(Range(vec(1, 2, 3, 4), Const(2), Const(3))), "[2 3]"},
		{"empty slice", V(Range(x, Const(3), Const(2))), "[]"},
		{"concat", V(Concat(S(Const(0)), V(x), S(Const(9)))), "[0 3 5 9]"},
		{"empty concat", V(Concat()), "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value(t, tt.expr, 3, 5).String(); got != tt.want {
				t.Errorf("%s: expected %s, got %s", tt.expr, tt.want, got)
			}
		})
	}
}

func TestCall(t *testing.T) {
	tests := []struct {
		name string
		arg  Expr
		want float64
	}{
		{"abs", S(Const(-2)), 2},
		{"round", S(Const(2.5)), 3},
		{"round", S(Const(-2.5)), -2},
		{"sqr", S(Const(-3)), 9},
		{"sqrt", S(Const(16)), 4},
		{"sum", V(vec(1, 2, 3)), 6},
		{"prod", V(vec(2, 3, 4)), 24},
		{"norm", V(vec(3, 4)), 5},
		{"sqrnorm", V(vec(3, 4)), 25},
		{"min", V(vec(3, -1, 2)), -1},
		{"max", V(vec(3, -1, 2)), 3},
		{"dim", V(vec()), 0},
		{"sum", V(vec()), 0},
	}

	for _, tt := range tests {
		e, ok := Call(tt.name, tt.arg)
		if !ok {
			t.Errorf("%s(%s) not defined", tt.name, tt.arg.Kind())

			continue
		}

		if got := value(t, e).Scalar; got != tt.want {
			t.Errorf("%s(%s): expected %g, got %g", tt.name, tt.arg, tt.want, got)
		}
	}

	for _, bad := range []struct {
		name string
		arg  Expr
	}{
		{"sum", S(Const(1))},
		{"sin", V(vec(1))},
		{"zeros", V(vec(1))},
		{"nosuch", S(Const(1))},
	} {
		if _, ok := Call(bad.name, bad.arg); ok {
			t.Errorf("%s(%s) must not be defined", bad.name, bad.arg.Kind())
		}
	}
}

func TestFunctionNames(t *testing.T) {
	names := FunctionNames()
	if len(names) != 28 || !slices.IsSorted(names) {
		t.Errorf("unexpected function names %v", names)
	}

	for _, s := range Functions() {
		if s.Name == "range" && s.String() != "range(scalar) vector" {
			t.Errorf("unexpected signature %s", s)
		}
	}
}

func TestBinary_Kinds(t *testing.T) {
	s, v := S(Const(1)), V(vec(1))

	valid := []struct {
		op       string
		lhs, rhs Expr
		want     Kind
	}{
		{"+", s, s, KindScalar},
		{"-", v, v, KindVector},
		{"*", s, v, KindVector},
		{"*", v, s, KindVector},
		{"*", v, v, KindScalar},
		{"/", v, s, KindVector},
		{".^", v, s, KindVector},
		{".^", v, v, KindVector},
		{"./", v, v, KindVector},
	}

	for _, tt := range valid {
		e, ok := Binary(tt.op, tt.lhs, tt.rhs)
		if !ok || e.Kind() != tt.want {
			t.Errorf("%s %s %s: expected %s", tt.lhs.Kind(), tt.op, tt.rhs.Kind(), tt.want)
		}
	}

	invalid := []struct {
		op       string
		lhs, rhs Expr
	}{
		{"+", s, v},
		{"-", v, s},
		{"/", s, v},
		{"/", v, v},
		{"^", v, s},
		{"^", s, v},
		{".*", s, v},
		{".*", v, s},
		{"./", v, s},
		{".^", s, s},
		{"%", s, s},
	}

	for _, tt := range invalid {
		if _, ok := Binary(tt.op, tt.lhs, tt.rhs); ok {
			t.Errorf("%s %s %s must be rejected", tt.lhs.Kind(), tt.op, tt.rhs.Kind())
		}
	}
}

func TestEvaluate_Errors(t *testing.T) {
	x := Input()

	tests := []struct {
		name string
		expr Expr
		want error
	}{
		{"index zero", S(Index(x, Const(0))), ErrIndex},
		{"index past end", S(Index(x, Add(Dim(x), Const(1)))), ErrIndex},
		{"index NaN", S(Index(x, Const(math.NaN()))), ErrIndex},
		{"slice first", V(Range(x, Const(0), Const(1))), ErrRange},
		{"slice last", V(Range(x, Const(1), Const(3))), ErrRange},
		{"slice reversed", V(Range(x, Const(2), Const(0))), ErrRange},
		{"sum length", V(AddVector(x, vec(1))), ErrDimension},
		{"inner length", S(Inner(x, vec(1, 2, 3))), ErrDimension},
		{"elem div length", V(ElemDiv(x, vec(1))), ErrDimension},
		{"negative size", V(Fill("zeros", Const(-1), 0)), ErrSize},
		{"huge size", V(Count(Const(1e300))), ErrTooLarge},
		{"empty min", S(reduce("min", vec(), reducers["min"])), ErrEmpty},
		{"empty max", S(reduce("max", vec(), reducers["max"])), ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := program(t, tt.expr).EvaluateValue(t.Context(), []float64{1, 2})
			if !errors.Is(err, ErrEvaluate) || !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluate_NotScalar(t *testing.T) {
	_, err := program(t, V(Input())).Evaluate(t.Context(), []float64{1})
	if !errors.Is(err, ErrNotScalar) {
		t.Errorf("expected not scalar error, got %v", err)
	}
}

func TestEvaluate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := program(t, S(Dim(Input()))).Evaluate(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context error, got %v", err)
	}
}

func TestEvaluate_ErrorIsPerCall(t *testing.T) {
	p := program(t, S(Index(Input(), Const(2))))

	if _, err := p.Evaluate(t.Context(), []float64{1}); !errors.Is(err, ErrIndex) {
		t.Fatalf("expected index error, got %v", err)
	}

	if got, err := p.Evaluate(t.Context(), []float64{1, 7}); err != nil || got != 7 {
		t.Errorf("expected 7 after failed call, got %g (%v)", got, err)
	}
}

func TestMap_Nested(t *testing.T) {
	// apply(range(3), sum(apply(range(lambda), lambda)) + lambda)
	inner := Map(Count(Lambda()), Lambda())
	body := Add(reduce("sum", inner, reducers["sum"]), Lambda())

	if got := value(t, V(Map(Count(Const(3)), body))).String(); got != "[2 5 9]" {
		t.Errorf("expected [2 5 9], got %s", got)
	}
}

// counting returns a vector node that reports how often it is evaluated.
func counting(n *atomic.Int64) *Vector {
	return vector("counting", func(f *frame) ([]float64, error) {
		n.Add(1)

		return f.x, nil
	})
}

func TestProgram_AuxEvaluatedOnce(t *testing.T) {
	var calls atomic.Int64

	aux := []Aux{
		{Name: "d", Expr: S(Dim(Input()))},
		{Name: "y", Expr: V(SubVector(counting(&calls), ScaleRight(Fill("ones", AuxScalar("d", 0), 1), Const(0.5))))},
	}
	y := AuxVector("y", 1)
	root := S(Add(reduce("sum", y, reducers["sum"]), Inner(y, y)))

	p := program(t, root, aux...)

	got, err := p.Evaluate(t.Context(), []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}

	// y = [0.5 1.5]: sum 2, inner 2.5
	if got != 4.5 {
		t.Errorf("expected 4.5, got %g", got)
	}

	if calls.Load() != 1 {
		t.Errorf("expected auxiliary body to run once, ran %d times", calls.Load())
	}

	if _, err := p.Evaluate(t.Context(), []float64{1, 2, 3}); err != nil || calls.Load() != 2 {
		t.Errorf("expected one more run per call, got %d (%v)", calls.Load(), err)
	}
}

func TestNewProgram_Invalid(t *testing.T) {
	scalar := Aux{Name: "s", Expr: S(Const(1))}

	tests := []struct {
		name string
		aux  []Aux
		root Expr
	}{
		{"missing root", nil, Expr{}},
		{"missing definition", []Aux{{Name: "a"}}, S(Const(1))},
		{"undefined slot", nil, S(Add(Const(1), AuxScalar("a", 5)))},
		{"negative slot", []Aux{scalar}, S(AuxScalar("a", -1))},
		{"forward reference", []Aux{{Name: "a", Expr: S(AuxScalar("b", 1))}, scalar}, S(Const(1))},
		{"kind mismatch", []Aux{scalar}, V(AuxVector("s", 0))},
		{"inside apply", nil, V(Map(Input(), AuxScalar("a", 0)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProgram(tt.aux, tt.root); !errors.Is(err, ErrProgram) {
				t.Errorf("expected invalid program error, got %v", err)
			}
		})
	}
}

func TestProgram_Concurrent(t *testing.T) {
	aux := []Aux{{Name: "s", Expr: S(reduce("sum", Input(), reducers["sum"]))}}
	p := program(t, S(Mul(AuxScalar("s", 0), Const(2))), aux...)

	var wg sync.WaitGroup

	for i := range 64 {
		wg.Go(func() {
			x := []float64{float64(i), 1}

			got, err := p.Evaluate(context.Background(), x)
			if err != nil || got != 2*float64(i+1) {
				t.Errorf("x=%v: got %g (%v)", x, got, err)
			}
		})
	}

	wg.Wait()
}

func TestEvaluateValue_Copies(t *testing.T) {
	p := program(t, V(vec(1, 2)))

	v, err := p.EvaluateValue(t.Context(), nil)
	if err != nil {
		t.Fatal(err)
	}

	v.Vector[0] = 99

	if v, _ = p.EvaluateValue(t.Context(), nil); v.Vector[0] != 1 {
		t.Error("caller mutation leaked into the program")
	}
}

func TestFold(t *testing.T) {
	folded, err := Fold(S(Add(Const(1), Const(2))))
	if err != nil || !folded.IsConstant() || folded.Scalar().Value() != 3 {
		t.Errorf("expected constant 3, got %s (%v)", folded, err)
	}

	for _, e := range []Expr{
		S(Add(Const(1), Dim(Input()))),
		V(Input()),
		S(Lambda()),
		S(AuxScalar("d", 0)),
		V(Map(vec(1, 2), Lambda())),
	} {
		if got, err := Fold(e); err != nil || got.IsConstant() {
			t.Errorf("%s must not fold (%v)", e, err)
		}
	}

	got, err := Fold(V(Map(vec(1, 2), Const(7))))
	if err != nil || got.String() != "[7 7]" {
		t.Errorf("expected [7 7], got %s (%v)", got, err)
	}

	if _, err := Fold(S(Index(vec(1), Const(5)))); !errors.Is(err, ErrIndex) {
		t.Errorf("expected fold to report index error, got %v", err)
	}
}

func TestFold_BitIdentical(t *testing.T) {
	build := func() Expr {
		return S(Div(Pow(Const(0.1), Const(1.0/3)), Add(Const(math.Pi), Const(1e-17))))
	}

	plain := value(t, build()).Scalar

	// fold bottom-up, one constructor at a time
	fold := func(e Expr) Expr {
		t.Helper()

		f, err := Fold(e)
		if err != nil {
			t.Fatal(err)
		}

		return f
	}

	pow := fold(S(Pow(Const(0.1), Const(1.0/3))))
	sum := fold(S(Add(Const(math.Pi), Const(1e-17))))
	folded := fold(S(Div(pow.Scalar(), sum.Scalar())))

	if !folded.IsConstant() {
		t.Fatalf("expected a constant, got %s", folded)
	}

	if folded.Scalar().Value() != plain {
		t.Errorf("folding changed the result: %v != %v", folded.Scalar().Value(), plain)
	}
}

func TestExpr_String(t *testing.T) {
	e := S(Add(Index(Input(), Const(1)), mustApply("sin", Lambda())))
	if got, want := e.String(), "(+ (index x 1) (sin lambda))"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func mustApply(name string, a *Scalar) *Scalar {
	s, _ := Apply(name, a)

	return s
}

// sphere builds sum(x .^ 2).
func sphere() *Program {
	p, _ := NewProgram(nil, S(reduce("sum", ElemPow(Input(), Const(2)), reducers["sum"])))

	return p
}

func BenchmarkEvaluate_Sphere(b *testing.B) {
	p := sphere()
	x := make([]float64, 30)

	for i := range x {
		x[i] = float64(i) / 10
	}

	ctx := context.Background()

	b.ReportAllocs()

	for b.Loop() {
		if _, err := p.Evaluate(ctx, x); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluate_SphereParallel(b *testing.B) {
	p := sphere()
	x := make([]float64, 30)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := p.Evaluate(ctx, x); err != nil {
				b.Error(err)

				return
			}
		}
	})
}
