package lang

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"

	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/lang/eval"
)

// Compile parses and compiles src into an evaluable program.
func Compile(ctx context.Context, src string, opts ...Option) (*eval.Program, error) {
	c := makeConfig(opts...)

	root, err := parse(ctx, src, c)
	if err != nil {
		return nil, err
	}

	return compile(ctx, root, c)
}

// CompileNode compiles a syntax tree produced by [Parse].
func CompileNode(ctx context.Context, root *ast.Node, opts ...Option) (*eval.Program, error) {
	return compile(ctx, root, makeConfig(opts...))
}

func compile(ctx context.Context, root *ast.Node, c config) (*eval.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if root == nil || root.Label != LabelProgram || root.Len() == 0 {
		return nil, ErrCompile.Wrap(ErrTree.With(slog.String("expected", LabelProgram)))
	}

	cc := &compiler{config: c, slots: map[string]int{}}

	last := root.Len() - 1
	for _, def := range root.Children[:last] {
		if err := cc.define(def); err != nil {
			return nil, err
		}
	}

	result := root.Child(last)

	expr, err := cc.expression(result)
	if err != nil {
		return nil, err
	}

	if expr.Kind() != eval.KindScalar && !c.opts.vectorResult {
		return nil, fail(result, ErrResultKind, slog.String("kind", expr.Kind().String()))
	}

	p, err := eval.NewProgram(cc.aux, expr, eval.WithLogger(c.logger))
	if err != nil {
		return nil, ErrCompile.Wrap(err)
	}

	c.logger.TraceContext(ctx, "compiled",
		slog.Int("aux", len(cc.aux)),
		slog.Int("nodes", p.Size()),
		slog.String("kind", p.Kind().String()),
		slog.Bool("fold", c.opts.fold),
	)

	return p, nil
}

// compiler walks one syntax tree.
type compiler struct {
	config

	aux   []eval.Aux
	slots map[string]int

	// set while compiling the second argument of apply
	inLambda bool
}

func (c *compiler) define(n *ast.Node) error {
	if n.Label != LabelAux || n.Len() != 2 {
		return malformed(n, LabelAux)
	}

	id := n.Child(0)
	name := id.Value

	if _, ok := c.slots[name]; ok || name == Input || name == Lambda {
		return fail(id, ErrRedefinition, slog.String("name", name))
	}

	e, err := c.expression(n.Child(1))
	if err != nil {
		return err
	}

	c.slots[name] = len(c.aux)
	c.aux = append(c.aux, eval.Aux{Name: name, Expr: e})

	return nil
}

// expression combines the operands of a flat operand/operator list one
// precedence level at a time, left to right.
func (c *compiler) expression(n *ast.Node) (eval.Expr, error) {
	if n.Label != LabelExpression || n.Len()%2 == 0 {
		return eval.Expr{}, malformed(n, LabelExpression)
	}

	operands := make([]eval.Expr, 0, n.Len()/2+1)
	operators := make([]*ast.Node, 0, n.Len()/2)

	for i, child := range n.Children {
		if i%2 == 1 {
			operators = append(operators, child)

			continue
		}

		e, err := c.operand(child)
		if err != nil {
			return eval.Expr{}, err
		}

		operands = append(operands, e)
	}

	for _, level := range Operators {
		for i := 0; i < len(operators); {
			op := operators[i]
			if !slices.Contains(level, op.Value) {
				i++

				continue
			}

			lhs, rhs := operands[i], operands[i+1]

			e, ok := eval.Binary(op.Value, lhs, rhs)
			if !ok {
				return eval.Expr{}, operandError(op, lhs.Kind().String(), rhs.Kind().String())
			}

			e, err := c.fold(op, e)
			if err != nil {
				return eval.Expr{}, err
			}

			operands[i] = e
			operands = slices.Delete(operands, i+1, i+2)
			operators = slices.Delete(operators, i, i+1)
		}
	}

	if len(operators) > 0 {
		return eval.Expr{}, fail(operators[0], ErrTree, slog.String("operator", operators[0].Value))
	}

	return operands[0], nil
}

func (c *compiler) operand(n *ast.Node) (eval.Expr, error) {
	switch n.Label {
	case LabelNegation:
		if n.Len() != 1 {
			return eval.Expr{}, malformed(n, LabelNegation)
		}

		e, err := c.simple(n.Child(0))
		if err != nil {
			return eval.Expr{}, err
		}

		return c.fold(n, eval.Negate(e))

	case LabelSimple:
		return c.simple(n)

	default:
		return eval.Expr{}, malformed(n, LabelSimple)
	}
}

// simple compiles a base expression followed by any number of ranges and
// at most one entry access.
func (c *compiler) simple(n *ast.Node) (eval.Expr, error) {
	if n.Label != LabelSimple || n.Len() == 0 {
		return eval.Expr{}, malformed(n, LabelSimple)
	}

	e, err := c.base(n.Child(0))
	if err != nil {
		return eval.Expr{}, err
	}

	for _, post := range n.Children[1:] {
		if e.Kind() != eval.KindVector {
			return eval.Expr{}, fail(post, ErrScalarAccess)
		}

		switch post.Label {
		case LabelRange:
			bounds, last, err := c.indices(post, 2)
			if err != nil {
				return eval.Expr{}, err
			}

			e = eval.V(eval.Range(e.Vector(), bounds[0], last))

		case LabelEntry:
			index, _, err := c.indices(post, 1)
			if err != nil {
				return eval.Expr{}, err
			}

			e = eval.S(eval.Index(e.Vector(), index[0]))

		default:
			return eval.Expr{}, malformed(post, LabelEntry)
		}

		if e, err = c.fold(post, e); err != nil {
			return eval.Expr{}, err
		}
	}

	return e, nil
}

// indices compiles the want scalar expressions of an entry or range node.
// The last one is also returned separately.
func (c *compiler) indices(n *ast.Node, want int) ([]*eval.Scalar, *eval.Scalar, error) {
	if n.Len() != want {
		return nil, nil, malformed(n, n.Label)
	}

	out := make([]*eval.Scalar, want)

	for i, child := range n.Children {
		e, err := c.expression(child)
		if err != nil {
			return nil, nil, err
		}

		if e.Kind() != eval.KindScalar {
			return nil, nil, fail(child, ErrIndexKind)
		}

		out[i] = e.Scalar()
	}

	return out, out[want-1], nil
}

func (c *compiler) base(n *ast.Node) (eval.Expr, error) {
	switch n.Label {
	case LabelBracket:
		if n.Len() != 1 {
			return eval.Expr{}, malformed(n, LabelBracket)
		}

		return c.expression(n.Child(0))

	case LabelVector:
		items := make([]eval.Expr, n.Len())

		for i, child := range n.Children {
			e, err := c.expression(child)
			if err != nil {
				return eval.Expr{}, err
			}

			items[i] = e
		}

		return c.fold(n, eval.V(eval.Concat(items...)))

	case LabelFunction:
		return c.function(n)

	case LabelApply:
		return c.apply(n)

	case LabelNumber:
		return number(n)

	case LabelIdentifier:
		return c.identifier(n)

	default:
		return eval.Expr{}, malformed(n, LabelSimple)
	}
}

func (c *compiler) function(n *ast.Node) (eval.Expr, error) {
	if n.Len() != 2 {
		return eval.Expr{}, malformed(n, LabelFunction)
	}

	name := n.Child(0).Value

	arg, err := c.expression(n.Child(1))
	if err != nil {
		return eval.Expr{}, err
	}

	e, ok := eval.Call(name, arg)
	if !ok {
		return eval.Expr{}, fail(n, ErrFunctionArgument,
			slog.String("function", name),
			slog.String("argument", arg.Kind().String()),
		)
	}

	return c.fold(n, e)
}

func (c *compiler) apply(n *ast.Node) (eval.Expr, error) {
	if n.Len() != 2 {
		return eval.Expr{}, malformed(n, LabelApply)
	}

	v, err := c.expression(n.Child(0))
	if err != nil {
		return eval.Expr{}, err
	}

	if v.Kind() != eval.KindVector {
		return eval.Expr{}, fail(n.Child(0), ErrApplyScalar)
	}

	outer := c.inLambda
	c.inLambda = true
	body, err := c.expression(n.Child(1))
	c.inLambda = outer

	if err != nil {
		return eval.Expr{}, err
	}

	if body.Kind() != eval.KindScalar {
		return eval.Expr{}, fail(n.Child(1), ErrApplyBody)
	}

	return c.fold(n, eval.V(eval.Map(v.Vector(), body.Scalar())))
}

func (c *compiler) identifier(n *ast.Node) (eval.Expr, error) {
	switch name := n.Value; name {
	case Input:
		if c.inLambda {
			return eval.Expr{}, fail(n, ErrInputInApply)
		}

		return eval.V(eval.Input()), nil

	case Lambda:
		if !c.inLambda {
			return eval.Expr{}, fail(n, ErrLambdaOutsideApply)
		}

		return eval.S(eval.Lambda()), nil

	default:
		slot, ok := c.slots[name]
		if !ok {
			return eval.Expr{}, fail(n, ErrUnknownVariable, slog.String("name", name))
		}

		if c.aux[slot].Expr.Kind() == eval.KindVector {
			return eval.V(eval.AuxVector(name, slot)), nil
		}

		return eval.S(eval.AuxScalar(name, slot)), nil
	}
}

func number(n *ast.Node) (eval.Expr, error) {
	f, err := strconv.ParseFloat(n.Value, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return eval.Expr{}, fail(n, ErrNumber, slog.String("text", n.Value))
	}

	return eval.S(eval.Const(f)), nil
}

// fold replaces e by its value if all its operands are constant and
// folding is enabled.
func (c *compiler) fold(n *ast.Node, e eval.Expr) (eval.Expr, error) {
	if !c.opts.fold {
		return e, nil
	}

	folded, err := eval.Fold(e)
	if err != nil {
		return eval.Expr{}, ErrCompile.With(
			slog.Int("line", n.Line),
			slog.Int("column", n.Column),
		).Wrap(ErrConstant.Wrap(err))
	}

	return folded, nil
}

func malformed(n *ast.Node, expected string) error {
	return fail(n, ErrTree,
		slog.String("label", n.Label),
		slog.String("expected", expected),
	)
}
