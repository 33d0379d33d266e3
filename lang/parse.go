package lang

import (
	"context"
	"log/slog"
	"sync"

	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/lang/grammar"
	"github.com/loreleva/Bbo-functions/lang/lexer"
	"github.com/loreleva/Bbo-functions/lang/token"
)

// Node labels of the syntax tree.
const (
	LabelProgram      = "program"
	LabelAux          = "auxiliary variable definition"
	LabelExpression   = "expression"
	LabelNegation     = "negation"
	LabelSimple       = "simple expression"
	LabelBracket      = "bracket expression"
	LabelVector       = "vector composition"
	LabelEntry        = "vector entry"
	LabelRange        = "vector range"
	LabelFunction     = "built-in function"
	LabelApply        = "component-wise operation"
	LabelNumber       = "floatingpoint"
	LabelIdentifier   = "identifier"
	LabelOperator     = "symbol"
	LabelFunctionName = "function"
)

// Reserved words.
const (
	KeywordVar   = "var"
	KeywordApply = "apply"
	Input        = "x"
	Lambda       = "lambda"
)

// Operators lists the binary operators from tightest to loosest binding.
var Operators = [][]string{
	{"^", ".^"},
	{"*", ".*", "/", "./"},
	{"+", "-"},
}

// Keywords returns the reserved words of the language: var, apply and the
// names of the built-in functions.
func Keywords() []string {
	return language().Keywords()
}

var language = sync.OnceValue(func() *lexer.Lexer {
	return lexer.New(
		lexer.WithComment("#"),
		lexer.WithKeywords(KeywordVar, KeywordApply),
		lexer.WithKeywords(eval.FunctionNames()...),
		lexer.WithOperators(".*", "./", ".^"),
	)
})

// syntax builds the grammar of the language once.
var syntax = sync.OnceValues(func() (*grammar.Grammar, error) {
	b := grammar.NewBuilder()

	sym := func(s string) grammar.Parser { return grammar.Discard(grammar.Sym(s)) }

	var ops []string
	for _, level := range Operators {
		ops = append(ops, level...)
	}

	program := b.Declare(LabelProgram)
	aux := b.Declare(LabelAux)
	expression := b.Declare(LabelExpression)
	negation := b.Declare(LabelNegation)
	simple := b.Declare(LabelSimple)
	bracket := b.Declare(LabelBracket)
	vector := b.Declare(LabelVector)
	entry := b.Declare(LabelEntry)
	slice := b.Declare(LabelRange)
	function := b.Declare(LabelFunction)
	apply := b.Declare(LabelApply)

	defs := []struct {
		rule grammar.Rule
		body grammar.Parser
	}{
		{program, grammar.Seq(grammar.Many(aux), expression)},
		{aux, grammar.Seq(
			grammar.Discard(grammar.Key(KeywordVar)), grammar.Cut(),
			grammar.Type(LabelIdentifier, token.Identifier), sym("="), expression, sym(";"),
		)},
		{expression, grammar.List1(grammar.Alt(negation, simple), grammar.OneOf(LabelOperator, ops...))},
		{negation, grammar.Seq(sym("-"), grammar.Cut(), simple)},
		{simple, grammar.Seq(
			grammar.Alt(
				bracket, vector, function, apply,
				grammar.Type(LabelNumber, token.FloatingPoint, token.Integer),
				grammar.Type(LabelIdentifier, token.Identifier),
			),
			grammar.Many(slice),
			grammar.Opt(entry),
		)},
		{bracket, grammar.Seq(sym("("), grammar.Cut(), expression, sym(")"))},
		{vector, grammar.Seq(sym("["), grammar.Cut(), grammar.List(expression, sym(",")), sym("]"))},
		{entry, grammar.Seq(sym("["), grammar.Cut(), expression, sym("]"))},
		{slice, grammar.Seq(sym("["), expression, sym(":"), grammar.Cut(), expression, sym("]"))},
		{function, grammar.Seq(
			grammar.OneOf(LabelFunctionName, eval.FunctionNames()...), grammar.Cut(),
			sym("("), expression, sym(")"),
		)},
		{apply, grammar.Seq(
			grammar.Discard(grammar.Key(KeywordApply)), grammar.Cut(),
			sym("("), expression, sym(","), expression, sym(")"),
		)},
	}

	for _, d := range defs {
		if err := b.Define(d.rule, d.body); err != nil {
			return nil, err
		}
	}

	return b.Build(program)
})

// Rules returns the names of the grammar rules of the language.
func Rules() []string {
	g, err := syntax()
	if err != nil {
		return nil
	}

	return g.Rules()
}

// Scan splits src into tokens.
func Scan(src string) (token.Stream, error) {
	return language().Scan(src)
}

// Parse parses src into a syntax tree whose root is labeled
// [LabelProgram].
func Parse(ctx context.Context, src string, opts ...Option) (*ast.Node, error) {
	c := makeConfig(opts...)

	return parse(ctx, src, c)
}

func parse(ctx context.Context, src string, c config) (*ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := syntax()
	if err != nil {
		return nil, err
	}

	tokens, err := language().Scan(src)
	if err != nil {
		c.logger.DebugContext(ctx, "scan failed", slog.Any("error", err))

		return nil, err
	}

	c.logger.TraceContext(ctx, "scanned", slog.Int("tokens", tokens.Len()))

	root, err := g.ParseAll(ctx, tokens,
		grammar.WithMaxDepth(c.opts.maxDepth),
		grammar.WithLogger(c.logger),
	)
	if err != nil {
		c.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	return root, nil
}
