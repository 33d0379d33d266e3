package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/lang/grammar"
	"github.com/loreleva/Bbo-functions/lang/lexer"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Error categories. Every error returned by [Parse] and [Compile] is
// derived from exactly one of them.
var (
	ErrLex       = lexer.Err
	ErrSyntax    = grammar.ErrSyntax
	ErrCompile   = pkg.NewError("compile error")
	ErrReadInput = pkg.NewError("failed to read input")
)

// Compile errors, wrapped by [ErrCompile].
var (
	ErrUnknownVariable    = pkg.NewError("unknown variable")
	ErrRedefinition       = pkg.NewError("re-definition of variable")
	ErrInputInApply       = pkg.NewError("variable 'x' cannot be used in second argument of apply statement")
	ErrLambdaOutsideApply = pkg.NewError("variable 'lambda' cannot be used outside second argument of apply statement")
	ErrOperandKind        = pkg.NewError("invalid operand kinds")
	ErrFunctionArgument   = pkg.NewError("function cannot be applied to argument")
	ErrScalarAccess       = pkg.NewError("cannot access entry or range of scalar")
	ErrIndexKind          = pkg.NewError("vector index must be scalar")
	ErrApplyScalar        = pkg.NewError("component-wise operation cannot be applied to scalar")
	ErrApplyBody          = pkg.NewError("component-wise operation must be scalar-valued")
	ErrResultKind         = pkg.NewError("expression result must be scalar")
	ErrConstant           = pkg.NewError("constant expression cannot be evaluated")
	ErrNumber             = pkg.NewError("invalid number")
	ErrTree               = pkg.NewError("malformed syntax tree")
)

// requirement describes the operand kinds each operator accepts.
var requirement = map[string]string{
	"^":  "operator ^ requires scalar operands",
	".^": "operator .^ requires vectorial left hand side operand",
	".*": "operator .* requires vectorial operands",
	"/":  "operator / requires scalar right hand side operand",
	"./": "operator ./ requires vectorial operands",
	"+":  "operator + cannot mix scalar and vectorial operands",
	"-":  "operator - cannot mix scalar and vectorial operands",
}

// fail reports reason at the position of n.
func fail(n *ast.Node, reason *pkg.Error, attrs ...slog.Attr) error {
	return ErrCompile.With(
		slog.Int("line", n.Line),
		slog.Int("column", n.Column),
	).Wrap(reason.With(attrs...))
}

// operandError reports an operator applied to operands of the wrong kinds.
func operandError(n *ast.Node, lhs, rhs string) error {
	reason := ErrOperandKind.With(
		slog.String("op", n.Value),
		slog.String("lhs", lhs),
		slog.String("rhs", rhs),
	).Wrap(errors.New(requirement[n.Value]))

	return ErrCompile.With(
		slog.Int("line", n.Line),
		slog.Int("column", n.Column),
	).Wrap(reason)
}

// Position returns the 1-based line and column recorded in err, if any.
func Position(err error) (line, column int, ok bool) {
	l, ok1 := pkg.Attr(err, "line")
	c, ok2 := pkg.Attr(err, "column")

	if !ok1 || !ok2 || l.Kind() != slog.KindInt64 || c.Kind() != slog.KindInt64 {
		return 0, 0, false
	}

	return int(l.Int64()), int(c.Int64()), true
}

// Snippet renders the line of src that err points at with a caret below
// the offending column:
//
//	  2 | sum(x .^ 2
//	                 ^
//
// It returns the empty string if err carries no position inside src.
func Snippet(src string, err error) string {
	line, column, ok := Position(err)
	if !ok {
		return ""
	}

	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	text := strings.TrimRight(lines[line-1], "\r")
	number := strconv.Itoa(line)

	var sb strings.Builder

	sb.WriteString("  ")
	sb.WriteString(number)
	sb.WriteString(" | ")
	sb.WriteString(text)
	sb.WriteByte('\n')

	// 2 leading spaces and " | "
	pad := len(number) + 5
	if column > 0 {
		pad += min(column-1, len(text))
	}

	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString("^\n")

	return sb.String()
}
