// Package lexer splits source text into a [token.Stream].
//
// The lexer is configured once with functional options and is then
// immutable; a single [Lexer] may scan many inputs concurrently.
package lexer

import (
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/loreleva/Bbo-functions/lang/token"
	"github.com/loreleva/Bbo-functions/pkg"
)

// Errors returned by [Lexer.Scan]. Every failure is derived from [Err] and
// wraps one of the specific sentinels.
var (
	Err               = pkg.NewError("lexical error")
	ErrInvalidToken   = pkg.NewError("invalid token")
	ErrUnterminated   = pkg.NewError("unterminated literal")
	ErrEscape         = pkg.NewError("malformed escape sequence")
	ErrAmbiguousToken = pkg.NewError("ambiguous token")
	ErrTrailingDot    = pkg.NewError("floating point literal ends in '.'")
)

// snippetLength is the number of characters quoted after an error position.
const snippetLength = 10

// DefaultOperators lists the punctuation recognized by a [Lexer] created
// without [WithOperators].
var DefaultOperators = []string{
	"(", ")", "[", "]", "{", "}",
	",", ";", ":", "=",
	"+", "-", "*", "/", "^",
}

// Lexer converts text into tokens.
type Lexer struct {
	comment   string
	keywords  map[string]struct{}
	operators []string
}

// Option configures a [Lexer].
type Option func(*Lexer)

// New returns a Lexer configured by opts.
func New(opts ...Option) *Lexer {
	l := &Lexer{
		keywords:  map[string]struct{}{},
		operators: slices.Clone(DefaultOperators),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// WithComment sets the marker that starts a comment running to the end of
// the line. An empty marker disables comments.
func WithComment(marker string) Option {
	return func(l *Lexer) { l.comment = marker }
}

// WithKeywords adds identifier-shaped words that are classified as
// [token.Keyword].
func WithKeywords(words ...string) Option {
	return func(l *Lexer) {
		for _, w := range words {
			l.keywords[w] = struct{}{}
		}
	}
}

// WithOperators registers punctuation tokens ahead of all previously
// registered ones. Within a single call, earlier entries take priority.
// Longer operators must therefore be registered after any shorter operator
// they begin with.
func WithOperators(ops ...string) Option {
	return func(l *Lexer) {
		l.operators = append(slices.Clone(ops), l.operators...)
	}
}

// IsKeyword reports whether word is a configured keyword.
func (l *Lexer) IsKeyword(word string) bool {
	_, ok := l.keywords[word]

	return ok
}

// Keywords returns the configured keywords in sorted order.
func (l *Lexer) Keywords() []string {
	out := make([]string, 0, len(l.keywords))
	for w := range l.keywords {
		out = append(out, w)
	}

	slices.Sort(out)

	return out
}

// Scan tokenizes src.
func (l *Lexer) Scan(src string) (token.Stream, error) {
	s := scanner{lexer: l, src: src, line: 1, lineStart: 0}

	for {
		s.skipSpaceAndComments()

		if s.pos >= len(s.src) {
			s.emit(token.Token{Category: token.End})

			return token.NewStream(s.tokens), nil
		}

		err := s.next()
		if err != nil {
			return token.Stream{}, err
		}
	}
}

type scanner struct {
	lexer     *Lexer
	src       string
	pos       int
	line      int
	lineStart int
	tokens    []token.Token
}

func (s *scanner) column(pos int) int { return pos - s.lineStart + 1 }

func (s *scanner) emit(t token.Token) {
	if t.Line == 0 {
		t.Line = s.line
	}

	if t.Column == 0 {
		t.Column = s.column(s.pos)
	}

	s.tokens = append(s.tokens, t)
}

func (s *scanner) fail(at int, reason *pkg.Error) error {
	near := s.src[at:]

	n, i := 0, 0
	for i < len(near) && n < snippetLength {
		_, size := utf8.DecodeRuneInString(near[i:])
		i += size
		n++
	}

	snippet := near[:i]
	if i < len(near) {
		snippet += "..."
	}

	return Err.With(
		slog.Int("line", s.line),
		slog.Int("column", s.column(at)),
		slog.String("near", snippet),
	).Wrap(reason)
}

func (s *scanner) skipSpaceAndComments() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case c == '\n':
			s.pos++
			s.line++
			s.lineStart = s.pos

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			s.pos++

		case s.lexer.comment != "" &&
			strings.HasPrefix(s.src[s.pos:], s.lexer.comment):
			end := strings.IndexByte(s.src[s.pos:], '\n')
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end
			}

		default:
			return
		}
	}
}

func (s *scanner) next() error {
	start := s.pos
	c := s.src[s.pos]

	switch {
	case c == '\'' || c == '"':
		return s.quoted(c)

	case isLetter(c) || c == '_':
		for s.pos < len(s.src) && (isLetter(s.src[s.pos]) ||
			isDigit(s.src[s.pos]) || s.src[s.pos] == '_') {
			s.pos++
		}

		text := s.src[start:s.pos]

		cat := token.Identifier
		if s.lexer.IsKeyword(text) {
			cat = token.Keyword
		}

		s.tokens = append(s.tokens, token.Token{
			Text: text, Category: cat, Line: s.line, Column: s.column(start),
		})

		return nil

	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		return s.number()
	}

	for _, op := range s.lexer.operators {
		if strings.HasPrefix(s.src[s.pos:], op) {
			s.pos += len(op)
			s.tokens = append(s.tokens, token.Token{
				Text: op, Category: token.Other, Line: s.line, Column: s.column(start),
			})

			return nil
		}
	}

	return s.fail(start, ErrInvalidToken)
}

// number scans both an integer and a floating point literal at the current
// position and keeps the longer one.
func (s *scanner) number() error {
	start := s.pos
	rest := s.src[start:]

	intLen := 0
	for intLen < len(rest) && isDigit(rest[intLen]) {
		intLen++
	}

	floatLen := floatPrefix(rest)

	n, cat := intLen, token.Integer
	if floatLen > intLen {
		n, cat = floatLen, token.FloatingPoint
	}

	text := rest[:n]
	if cat == token.FloatingPoint && strings.HasSuffix(text, ".") {
		return s.fail(start, ErrTrailingDot)
	}

	if n < len(rest) {
		if c := rest[n]; c == '.' || c == '_' || isLetter(c) {
			return s.fail(start, ErrAmbiguousToken)
		}
	}

	s.pos += n
	s.tokens = append(s.tokens, token.Token{
		Text: text, Category: cat, Line: s.line, Column: s.column(start),
	})

	return nil
}

// floatPrefix returns the length of the longest decimal floating point
// literal at the start of s: digits, an optional fraction and an optional
// exponent. It returns 0 if s has no mantissa digit.
func floatPrefix(s string) int {
	i, digits := 0, 0

	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}

	if i < len(s) && s[i] == '.' {
		i++

		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}

	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}

		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}

		if k > j {
			i = k
		}
	}

	return i
}

func (s *scanner) quoted(quote byte) error {
	start := s.pos
	line, col := s.line, s.column(start)
	s.pos++

	var sb strings.Builder

	for {
		if s.pos >= len(s.src) || s.src[s.pos] == '\n' {
			return s.fail(start, ErrUnterminated)
		}

		c := s.src[s.pos]

		switch {
		case c == quote:
			s.pos++

			cat := token.DoubleQuoted
			if quote == '\'' {
				cat = token.SingleQuoted
			}

			s.tokens = append(s.tokens, token.Token{
				Text: sb.String(), Category: cat, Line: line, Column: col,
			})

			return nil

		case c == '\\':
			r, n, ok := unescape(s.src[s.pos:])
			if !ok {
				return s.fail(s.pos, ErrEscape)
			}

			sb.WriteRune(r)
			s.pos += n

		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
}

// unescape decodes the escape sequence at the start of s (which begins with
// a backslash) and returns the rune and the number of bytes consumed.
func unescape(s string) (rune, int, bool) {
	if len(s) < 2 {
		return 0, 0, false
	}

	switch s[1] {
	case 'n':
		return '\n', 2, true
	case 't':
		return '\t', 2, true
	case 'r':
		return '\r', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case 'v':
		return '\v', 2, true
	case '0':
		return 0, 2, true
	case '\\', '"', '\'':
		return rune(s[1]), 2, true
	case 'x':
		return hexRune(s, 2)
	case 'u':
		return hexRune(s, 4)
	case 'U':
		return hexRune(s, 8)
	}

	return 0, 0, false
}

func hexRune(s string, digits int) (rune, int, bool) {
	if len(s) < 2+digits {
		return 0, 0, false
	}

	var r rune

	for _, c := range []byte(s[2 : 2+digits]) {
		var v byte

		switch {
		case isDigit(c):
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return 0, 0, false
		}

		r = r<<4 | rune(v)
	}

	if !utf8.ValidRune(r) {
		return 0, 0, false
	}

	return r, 2 + digits, true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
