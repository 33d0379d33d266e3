// Package lang defines the objective function language and compiles its
// programs into [eval.Program] values.
//
// # Grammar
//
// Informal EBNF, rule names in quotes label the syntax tree nodes:
//
//	program     → aux* expression                       "program"
//	aux         → 'var' identifier '=' expression ';'   "auxiliary variable definition"
//	expression  → operand (operator operand)*           "expression"
//	operand     → negation | simple
//	negation    → '-' simple                            "negation"
//	simple      → base range* entry?                    "simple expression"
//	base        → bracket | vector | function | apply | number | identifier
//	bracket     → '(' expression ')'                    "bracket expression"
//	vector      → '[' (expression (',' expression)*)? ']' "vector composition"
//	range       → '[' expression ':' expression ']'     "vector range"
//	entry       → '[' expression ']'                    "vector entry"
//	function    → name '(' expression ')'               "built-in function"
//	apply       → 'apply' '(' expression ',' expression ')' "component-wise operation"
//	operator    → '^' | '.^' | '*' | '.*' | '/' | './' | '+' | '-'
//
// Operators bind in three levels, each left-associative: '^' and '.^',
// then '*', '.*', '/' and './', then '+' and '-'. Negation applies to a
// simple expression, so -2^2 is 4.
//
// Text from '#' to the end of the line is a comment.
//
// # Types
//
// Every expression is a scalar or a vector, decided while compiling.
// The input point is the vector x. Inside the second argument of apply the
// scalar lambda is bound to each element of the first argument in turn,
// and x may not be used there. Auxiliary variables are computed once per
// evaluation, in order, and may be used anywhere after their definition.
//
// # Example
//
//	# shifted sphere
//	var z = x - ones(dim(x)) * 0.5;
//	sum(z .^ 2)
//
// Compile a program once and evaluate it any number of times, from any
// number of goroutines:
//
//	p, err := lang.Compile(ctx, src)
//	if err != nil {
//		return err
//	}
//	f, err := p.Evaluate(ctx, []float64{1, 2, 3})
package lang
