// Package token defines the lexical tokens produced by package lexer and
// consumed by the grammar engine.
package token

import "strconv"

// Category classifies a token.
type Category uint8

const (
	Identifier    Category = iota // identifier
	Keyword                       // keyword
	Integer                       // integer
	FloatingPoint                 // floating point number
	SingleQuoted                  // single-quoted literal
	DoubleQuoted                  // double-quoted literal
	Other                         // symbol
	End                           // end of input
)

var categoryName = [...]string{
	Identifier:    "identifier",
	Keyword:       "keyword",
	Integer:       "integer",
	FloatingPoint: "floating point number",
	SingleQuoted:  "single-quoted literal",
	DoubleQuoted:  "double-quoted literal",
	Other:         "symbol",
	End:           "end of input",
}

func (c Category) String() string {
	if int(c) < len(categoryName) {
		return categoryName[c]
	}

	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Token is a single lexical unit.
// Text holds the decoded content for quoted literals and is empty for the
// end token.
type Token struct {
	Text     string
	Category Category
	Line     int
	Column   int
}

// IsEnd reports whether t is the end-of-input sentinel.
func (t Token) IsEnd() bool { return t.Category == End }

// String returns a short description of t suitable for diagnostics.
func (t Token) String() string {
	if t.IsEnd() {
		return t.Category.String()
	}

	return strconv.Quote(t.Text)
}

// Stream is an ordered, read-only sequence of tokens terminated by exactly
// one end token.
type Stream struct {
	tokens []Token
}

// NewStream returns a stream over tokens, appending the end sentinel when
// it is missing.
func NewStream(tokens []Token) Stream {
	n := len(tokens)
	if n == 0 || !tokens[n-1].IsEnd() {
		line := 1
		if n > 0 {
			line = tokens[n-1].Line
		}

		tokens = append(tokens, Token{Category: End, Line: line})
	}

	return Stream{tokens: tokens}
}

// Len returns the number of tokens including the end sentinel.
func (s Stream) Len() int { return len(s.tokens) }

// At returns the token at position i. Positions past the end return the end
// sentinel.
func (s Stream) At(i int) Token {
	if i < 0 {
		i = 0
	}

	if i >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1]
	}

	return s.tokens[i]
}

// End returns the position of the end sentinel.
func (s Stream) End() int { return len(s.tokens) - 1 }

// Tokens returns a copy of the tokens in s.
func (s Stream) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)

	return out
}
