package grammar

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/loreleva/Bbo-functions/lang/ast"
	"github.com/loreleva/Bbo-functions/lang/token"
)

// Parser is a composable grammar element. Each parser consumes zero or more
// tokens starting at a position, appends zero or more nodes to a parent node,
// and reports an [Outcome] together with the position after the match.
//
// Parsers are immutable values created by the constructors of this package.
type Parser interface {
	parse(st *state, pos int, parent *ast.Node) (int, Outcome)
	describe() string
}

// leaf builds the node for a matched token.
func leaf(st *state, label string, pos int) *ast.Node {
	tok := st.token(pos)
	n := ast.NewLeaf(label, tok.Text, pos)
	n.Line, n.Column = tok.Line, tok.Column

	return n
}

// literal matches a token by text, optionally restricted to keywords or
// non-keywords.
type literal struct {
	text  string
	label string
	kind  int // 0 any, 1 keyword only, 2 non-keyword only
}

// Lit matches one token whose text equals text. It emits a node labeled
// "literal".
func Lit(text string) Parser { return literal{text: text, label: "literal"} }

// Key matches one keyword token whose text equals word. It emits a node
// labeled "keyword".
func Key(word string) Parser { return literal{text: word, label: "keyword", kind: 1} }

// Sym matches one non-keyword token whose text equals text. It emits a node
// labeled "symbol".
func Sym(text string) Parser { return literal{text: text, label: "symbol", kind: 2} }

func (p literal) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	tok := st.token(pos)

	ok := !tok.IsEnd() && tok.Text == p.text
	switch p.kind {
	case 1:
		ok = ok && tok.Category == token.Keyword
	case 2:
		ok = ok && tok.Category != token.Keyword
	}

	if !ok {
		return pos, st.fail(pos, p.describe())
	}

	parent.Add(leaf(st, p.label, pos))

	return pos + 1, success
}

func (p literal) describe() string { return "'" + p.text + "'" }

// tokenType matches one token of any of a set of categories.
type tokenType struct {
	label string
	cats  []token.Category
}

// Type matches one token whose category is one of cats, and emits a node
// labeled label. The first category names the expectation in diagnostics.
func Type(label string, cats ...token.Category) Parser {
	return tokenType{label: label, cats: cats}
}

func (p tokenType) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	tok := st.token(pos)

	for _, c := range p.cats {
		if tok.Category == c {
			parent.Add(leaf(st, p.label, pos))

			return pos + 1, success
		}
	}

	return pos, st.fail(pos, p.describe())
}

func (p tokenType) describe() string {
	if len(p.cats) == 0 {
		return p.label
	}

	return p.cats[0].String()
}

// symbolSet matches one token whose text belongs to a fixed set.
type symbolSet struct {
	label string
	set   map[string]struct{}
	list  []string
}

// OneOf matches one token whose text is one of texts, and emits a node
// labeled label.
func OneOf(label string, texts ...string) Parser {
	set := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		set[t] = struct{}{}
	}

	return symbolSet{label: label, set: set, list: texts}
}

func (p symbolSet) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	tok := st.token(pos)

	if _, ok := p.set[tok.Text]; ok && !tok.IsEnd() {
		parent.Add(leaf(st, p.label, pos))

		return pos + 1, success
	}

	return pos, st.fail(pos, p.describe())
}

func (p symbolSet) describe() string { return p.label }

// sequence runs parsers in order.
type sequence struct{ items []Parser }

// Seq matches each of items in order. A failure before a [Cut] rewinds to
// the start of the sequence; a failure after a Cut becomes Fatal.
func Seq(items ...Parser) Parser { return sequence{items: items} }

func (p sequence) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	start, mark, cut := pos, parent.Len(), false

	for _, item := range p.items {
		if _, ok := item.(cutPoint); ok {
			cut = true

			continue
		}

		next, out := item.parse(st, pos, parent)

		switch out.Status {
		case Success:
			pos = next

		case Fatal:
			parent.Truncate(mark)

			return next, out

		default:
			parent.Truncate(mark)

			if cut {
				return out.Pos, st.promote(out)
			}

			return start, out
		}
	}

	return pos, success
}

func (p sequence) describe() string {
	for _, item := range p.items {
		if _, ok := item.(cutPoint); !ok {
			return item.describe()
		}
	}

	return "empty sequence"
}

// alternative tries parsers in order.
type alternative struct{ items []Parser }

// Alt tries each of items in order; the first Success or Fatal wins.
func Alt(items ...Parser) Parser { return alternative{items: items} }

func (p alternative) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	for _, item := range p.items {
		next, out := item.parse(st, pos, parent)
		if out.Status != Failure {
			return next, out
		}
	}

	return pos, Outcome{Status: Failure, Pos: pos, Message: "expected " + p.describe()}
}

func (p alternative) describe() string {
	parts := make([]string, len(p.items))
	for i, item := range p.items {
		parts[i] = item.describe()
	}

	return strings.Join(parts, " or ")
}

// repeat implements Optional, ZeroOrMore and OneOrMore.
type repeat struct {
	body     Parser
	min, max int // max < 0 is unbounded
}

// Opt matches body once or not at all. A Failure of body is not an error.
func Opt(body Parser) Parser { return repeat{body: body, min: 0, max: 1} }

// Many matches body zero or more times.
func Many(body Parser) Parser { return repeat{body: body, min: 0, max: -1} }

// Many1 matches body one or more times.
func Many1(body Parser) Parser { return repeat{body: body, min: 1, max: -1} }

func (p repeat) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	count := 0

	for p.max < 0 || count < p.max {
		next, out := p.body.parse(st, pos, parent)

		if out.Status == Fatal {
			return next, out
		}

		if out.Status == Failure {
			if count < p.min {
				return pos, out
			}

			break
		}

		count++

		// a body that succeeds without consuming would loop forever
		if next == pos {
			break
		}

		pos = next
	}

	return pos, success
}

func (p repeat) describe() string { return p.body.describe() }

// delimitedList matches content separated by delimiters.
type delimitedList struct {
	content, delim Parser
	allowEmpty     bool
}

// List matches zero or more content items separated by delim.
func List(content, delim Parser) Parser {
	return delimitedList{content: content, delim: delim, allowEmpty: true}
}

// List1 matches one or more content items separated by delim. A failing
// first item is a Failure of the list.
func List1(content, delim Parser) Parser {
	return delimitedList{content: content, delim: delim}
}

func (p delimitedList) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	next, out := p.content.parse(st, pos, parent)

	switch out.Status {
	case Fatal:
		return next, out
	case Failure:
		if p.allowEmpty {
			return pos, success
		}

		return pos, out
	}

	pos = next

	for {
		mark := parent.Len()

		afterDelim, out := p.delim.parse(st, pos, parent)
		if out.Status == Fatal {
			return afterDelim, out
		}

		if out.Status == Failure {
			return pos, success
		}

		afterItem, out := p.content.parse(st, afterDelim, parent)
		if out.Status == Fatal {
			return afterItem, out
		}

		if out.Status == Failure {
			parent.Truncate(mark)

			return pos, success
		}

		pos = afterItem
	}
}

func (p delimitedList) describe() string { return p.content.describe() }

// difference matches good unless bad matches at the same position.
type difference struct{ good, bad Parser }

// Diff matches good only if bad does not match at the same position.
func Diff(good, bad Parser) Parser { return difference{good: good, bad: bad} }

func (p difference) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	furthest, expected := st.furthest, append([]string(nil), st.expected...)

	_, out := p.bad.parse(st, pos, ast.New("", pos))

	st.furthest, st.expected = furthest, expected

	if out.Status != Failure {
		return pos, st.fail(pos, "not "+p.bad.describe())
	}

	return p.good.parse(st, pos, parent)
}

func (p difference) describe() string { return p.good.describe() }

// cutPoint is recognized by sequences.
type cutPoint struct{}

// Cut marks the point in a [Seq] after which failures are Fatal. Outside a
// sequence it matches nothing and always succeeds.
func Cut() Parser { return cutPoint{} }

func (cutPoint) parse(_ *state, pos int, _ *ast.Node) (int, Outcome) { return pos, success }

func (cutPoint) describe() string { return "cut" }

// discard suppresses the nodes emitted by a parser.
type discard struct{ body Parser }

// Discard matches body but keeps none of the nodes it emits.
func Discard(body Parser) Parser { return discard{body: body} }

func (p discard) parse(st *state, pos int, _ *ast.Node) (int, Outcome) {
	return p.body.parse(st, pos, ast.New("", pos))
}

func (p discard) describe() string { return p.body.describe() }

// marker emits a node without consuming input.
type marker struct{ label string }

// Marker inserts an empty node labeled label at the current position without
// consuming input.
func Marker(label string) Parser { return marker{label: label} }

func (p marker) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	n := ast.New(p.label, pos)
	tok := st.token(pos)
	n.Line, n.Column = tok.Line, tok.Column
	parent.Add(n)

	return pos, success
}

func (p marker) describe() string { return p.label }

// wrapper groups the nodes of its body under a labeled node.
type wrapper struct {
	label string
	body  Parser
}

// Wrap matches body and groups the nodes it emits under a node labeled
// label. The node is added only if body succeeds.
func Wrap(label string, body Parser) Parser { return wrapper{label: label, body: body} }

func (p wrapper) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	return group(st, p.label, p.body, pos, parent)
}

func (p wrapper) describe() string { return p.label }

func group(st *state, label string, body Parser, pos int, parent *ast.Node) (int, Outcome) {
	n := ast.New(label, pos)
	tok := st.token(pos)
	n.Line, n.Column = tok.Line, tok.Column

	next, out := body.parse(st, pos, n)
	if out.Status != Success {
		return next, out
	}

	parent.Add(n)

	return next, success
}

// Rule is a handle to a named rule declared with [Builder.Declare].
type Rule struct {
	owner *Builder
	id    int
	name  string
}

// Name returns the rule name, which labels the nodes it emits.
func (r Rule) Name() string { return r.name }

func (r Rule) parse(st *state, pos int, parent *ast.Node) (int, Outcome) {
	g := st.grammar
	if r.owner != g.owner || r.id < 0 || r.id >= len(g.bodies) {
		return pos, Outcome{
			Status:  Fatal,
			Pos:     pos,
			Message: "rule " + strconv.Quote(r.name) + " belongs to another grammar",
			Rule:    r.name,
			cause:   ErrForeignRule.With(slog.String("rule", r.name)),
		}
	}

	st.depth++
	defer func() { st.depth-- }()

	if st.depth > st.maxDepth {
		return pos, Outcome{
			Status:  Fatal,
			Pos:     pos,
			Message: ErrMaxDepth.Message(),
			Rule:    r.name,
			cause:   ErrMaxDepth.With(slog.Int("max_depth", st.maxDepth)),
		}
	}

	next, out := group(st, r.name, g.bodies[r.id], pos, parent)

	if out.Status == Fatal && out.Rule == "" {
		out.Rule = r.name
	}

	if st.trace {
		st.logger.TraceContext(st.ctx, "rule",
			slog.String("name", r.name),
			slog.Int("pos", pos),
			slog.Int("next", next),
			slog.String("status", out.Status.String()),
		)
	}

	return next, out
}

func (r Rule) describe() string { return r.name }
