// Package grammar implements a backtracking parser-combinator engine that
// turns a [token.Stream] into an [ast.Node] tree.
//
// A grammar is declared with a [Builder]: rules are declared by name to
// obtain a handle, their bodies are assigned exactly once, and [Builder.Build]
// freezes the result into an immutable [Grammar]. Handles make recursive
// productions possible without mutating shared parsers after the build.
//
//	b := grammar.NewBuilder()
//	expr := b.Declare("expression")
//	b.Define(expr, grammar.Alt(
//		grammar.Seq(grammar.Discard(grammar.Lit("(")), grammar.Cut(), expr,
//			grammar.Discard(grammar.Lit(")"))),
//		grammar.Type("number", token.Integer),
//	))
//	g, err := b.Build(expr)
//
// # Outcomes
//
// Every parser reports Success, Failure or Fatal. Failure is ordinary
// control flow: sequences rewind and alternatives try the next branch.
// A [Cut] inside a sequence promotes any later failure of that sequence to
// Fatal, which alternatives above it do not swallow.
package grammar

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/lang/token"
	"github.com/loreleva/Bbo-functions/log"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Errors returned while building or running a grammar.
var (
	ErrSyntax         = pkg.NewError("syntax error")
	ErrMaxDepth       = pkg.NewError("maximum nesting depth exceeded")
	ErrBuild          = pkg.NewError("invalid grammar")
	ErrUndefinedRule  = pkg.NewError("rule has no body")
	ErrRedefinedRule  = pkg.NewError("rule body already assigned")
	ErrForeignRule    = pkg.NewError("rule belongs to another builder")
	ErrBuilderFrozen  = pkg.NewError("grammar builder already built")
	errUnexpectedTail = errors.New("unexpected input after expression")
)

// DefaultMaxDepth is the default bound on nested rule invocations.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 1024

// RootLabel labels the node returned by [Grammar.ParseAll] when the root
// parser does not emit exactly one node.
const RootLabel = "root"

// Status is the result class of a parse attempt.
type Status uint8

const (
	Success Status = iota // success
	Failure               // failure
	Fatal                 // fatal
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome describes the result of a parse attempt. Pos and Message are set
// for Failure and Fatal; Rule names the innermost rule a Fatal outcome
// escaped from.
type Outcome struct {
	Status  Status
	Pos     int
	Message string
	Rule    string
	cause   error
}

// OK reports whether o is a success.
func (o Outcome) OK() bool { return o.Status == Success }

var success = Outcome{Status: Success}

// Builder declares the rules of a grammar.
type Builder struct {
	rules []ruleDef
	built bool
}

type ruleDef struct {
	name    string
	body    Parser
	defined bool
}

// NewBuilder returns an empty grammar builder.
func NewBuilder() *Builder { return &Builder{} }

// Declare reserves a rule named name and returns its handle. The handle may
// be used inside other parsers before its body is assigned with
// [Builder.Define].
func (b *Builder) Declare(name string) Rule {
	b.rules = append(b.rules, ruleDef{name: name})

	return Rule{owner: b, id: len(b.rules) - 1, name: name}
}

// Define assigns body to the declared rule r. Each rule is defined once.
func (b *Builder) Define(r Rule, body Parser) error {
	switch {
	case b.built:
		return ErrBuilderFrozen.With(slog.String("rule", r.name))
	case r.owner != b || r.id < 0 || r.id >= len(b.rules):
		return ErrForeignRule.With(slog.String("rule", r.name))
	case b.rules[r.id].defined:
		return ErrRedefinedRule.With(slog.String("rule", r.name))
	}

	b.rules[r.id].body = body
	b.rules[r.id].defined = true

	return nil
}

// Rule declares and defines a rule in one step. It fails on a frozen
// builder.
func (b *Builder) Rule(name string, body Parser) (Rule, error) {
	if b.built {
		return Rule{}, ErrBuilderFrozen.With(slog.String("rule", name))
	}

	r := b.Declare(name)

	return r, b.Define(r, body)
}

// Build freezes the builder and returns a grammar whose entry point is
// root. It fails if any declared rule was never defined.
func (b *Builder) Build(root Parser) (*Grammar, error) {
	if b.built {
		return nil, ErrBuilderFrozen
	}

	var missing []string

	for _, r := range b.rules {
		if !r.defined {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return nil, ErrBuild.Wrap(ErrUndefinedRule.With(
			slog.String("rules", strings.Join(missing, ", ")),
		))
	}

	b.built = true

	bodies := make([]Parser, len(b.rules))
	names := make([]string, len(b.rules))

	for i, r := range b.rules {
		bodies[i] = r.body
		names[i] = r.name
	}

	return &Grammar{owner: b, root: root, bodies: bodies, names: names}, nil
}

// Grammar is an immutable, built grammar. It is safe for concurrent use.
type Grammar struct {
	owner  *Builder
	root   Parser
	bodies []Parser
	names  []string
}

// Rules returns the names of all rules in declaration order.
func (g *Grammar) Rules() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)

	return out
}

// Option configures a single parse.
type Option func(*state)

// WithMaxDepth bounds the number of nested rule invocations.
func WithMaxDepth(depth int) Option {
	return func(st *state) { st.maxDepth = depth }
}

// WithLogger sets the structured logger used for trace-level rule logging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(st *state) { st.logger = logger }
}

// state holds the mutable bookkeeping of one parse.
type state struct {
	ctx      context.Context
	grammar  *Grammar
	tokens   token.Stream
	depth    int
	maxDepth int
	logger   log.Logger
	trace    bool

	// furthest failure seen so far and the items expected there
	furthest int
	expected []string
}

func (st *state) token(pos int) token.Token { return st.tokens.At(pos) }

// fail records that item was expected at pos and returns a Failure.
func (st *state) fail(pos int, item string) Outcome {
	switch {
	case pos > st.furthest:
		st.furthest = pos
		st.expected = append(st.expected[:0], item)
	case pos == st.furthest:
		found := false

		for _, e := range st.expected {
			if e == item {
				found = true

				break
			}
		}

		if !found {
			st.expected = append(st.expected, item)
		}
	}

	return Outcome{Status: Failure, Pos: pos, Message: "expected " + item}
}

// expectation renders the items expected at the furthest failure.
func (st *state) expectation() string {
	switch len(st.expected) {
	case 0:
		return "syntax error"
	case 1:
		return "expected " + st.expected[0]
	default:
		return "expected one of " + strings.Join(st.expected, ", ")
	}
}

// promote converts a failure below a cut into a Fatal outcome, preferring
// the furthest failure when it lies at or beyond the failing position.
func (st *state) promote(o Outcome) Outcome {
	o.Status = Fatal
	if st.furthest >= o.Pos && len(st.expected) > 0 {
		o.Pos = st.furthest
		o.Message = st.expectation()
	}

	return o
}

// ParseAll parses the whole stream with the grammar's root parser.
// It fails if the root parser does not consume every token before the end
// sentinel.
func (g *Grammar) ParseAll(
	ctx context.Context,
	tokens token.Stream,
	opts ...Option,
) (*ast.Node, error) {
	st := &state{
		ctx:      ctx,
		grammar:  g,
		tokens:   tokens,
		maxDepth: DefaultMaxDepth,
		furthest: -1,
	}

	for _, opt := range opts {
		opt(st)
	}

	st.trace = st.logger.Logger != nil && st.logger.Level() <= log.LevelTrace

	top := ast.New(RootLabel, 0)
	top.Line, top.Column = tokens.At(0).Line, tokens.At(0).Column

	pos, out := g.root.parse(st, 0, top)

	switch {
	case out.Status == Fatal:
		return nil, st.syntaxError(out.Pos, out.Message, out.Rule, out.cause)

	case out.Status == Failure:
		return nil, st.syntaxError(max(out.Pos, st.furthest), st.expectation(), "", nil)

	case pos < tokens.End():
		if st.furthest >= pos && len(st.expected) > 0 {
			return nil, st.syntaxError(st.furthest, st.expectation(), "", nil)
		}

		return nil, st.syntaxError(pos, "", "", errUnexpectedTail)
	}

	st.logger.TraceContext(ctx, "parse complete",
		slog.Int("tokens", tokens.Len()),
		slog.Int("nodes", top.Len()),
	)

	if top.Len() == 1 {
		return top.Child(0), nil
	}

	return top, nil
}

func (st *state) syntaxError(pos int, msg, rule string, cause error) error {
	tok := st.token(pos)

	attrs := []slog.Attr{
		slog.Int("line", tok.Line),
		slog.Int("column", tok.Column),
		slog.Int("pos", pos),
		slog.String("near", tok.String()),
	}

	if rule != "" {
		attrs = append(attrs, slog.String("rule", rule))
	}

	if cause == nil {
		cause = errors.New(msg)
	}

	return ErrSyntax.With(attrs...).Wrap(cause)
}
