package eval

import (
	"log/slog"

	"github.com/loreleva/Bbo-functions/pkg"
)

// ErrEvaluate is the category of every error returned while evaluating a
// [Program]. It wraps one of the specific sentinels below.
var ErrEvaluate = pkg.NewError("evaluation error")

var (
	ErrIndex     = pkg.NewError("index out of bounds")
	ErrRange     = pkg.NewError("range out of bounds")
	ErrDimension = pkg.NewError("dimension mismatch")
	ErrEmpty     = pkg.NewError("empty vector")
	ErrSize      = pkg.NewError("dimension must be non-negative")
	ErrTooLarge  = pkg.NewError("vector size exceeds limit")
	ErrNotScalar = pkg.NewError("result is not a scalar")
	ErrProgram   = pkg.NewError("invalid program")
)

func fail(reason *pkg.Error, attrs ...slog.Attr) error {
	return ErrEvaluate.Wrap(reason.With(attrs...))
}

func mismatch(op string, a, b int) error {
	return fail(ErrDimension,
		slog.String("op", op),
		slog.Int("lhs", a),
		slog.Int("rhs", b),
	)
}
