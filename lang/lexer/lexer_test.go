package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/loreleva/Bbo-functions/lang/token"
	"github.com/loreleva/Bbo-functions/pkg"
)

func newTestLexer() *Lexer {
	return New(
		WithComment("#"),
		WithKeywords("var", "apply", "sum"),
		WithOperators(".*", "./", ".^"),
	)
}

func scanTexts(t *testing.T, l *Lexer, src string) []token.Token {
	t.Helper()

	s, err := l.Scan(src)
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}

	return s.Tokens()
}

func TestScan_Categories(t *testing.T) {
	toks := scanTexts(t, newTestLexer(), `var y = sum(x) .* 2.5e-1 'a' "b";`)

	want := []struct {
		text string
		cat  token.Category
	}{
		{"var", token.Keyword},
		{"y", token.Identifier},
		{"=", token.Other},
		{"sum", token.Keyword},
		{"(", token.Other},
		{"x", token.Identifier},
		{")", token.Other},
		{".*", token.Other},
		{"2.5e-1", token.FloatingPoint},
		{"a", token.SingleQuoted},
		{"b", token.DoubleQuoted},
		{";", token.Other},
		{"", token.End},
	}

	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}

	for i, w := range want {
		if toks[i].Text != w.text || toks[i].Category != w.cat {
			t.Errorf("token %d: expected %q/%s, got %q/%s",
				i, w.text, w.cat, toks[i].Text, toks[i].Category)
		}
	}
}

func TestScan_Numbers(t *testing.T) {
	tests := []struct {
		src  string
		cat  token.Category
		text string
	}{
		{"42", token.Integer, "42"},
		{"3.1415926536", token.FloatingPoint, "3.1415926536"},
		{".5", token.FloatingPoint, ".5"},
		{"1e3", token.FloatingPoint, "1e3"},
		{"7E+2", token.FloatingPoint, "7E+2"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := scanTexts(t, newTestLexer(), tt.src)
			if toks[0].Category != tt.cat || toks[0].Text != tt.text {
				t.Errorf("expected %s %q, got %s %q",
					tt.cat, tt.text, toks[0].Category, toks[0].Text)
			}
		})
	}
}

func TestScan_NumberErrors(t *testing.T) {
	tests := []struct {
		src  string
		want *pkg.Error
	}{
		{"1.", ErrTrailingDot},
		{"2.*x", ErrTrailingDot},
		{"12abc", ErrAmbiguousToken},
		{"3_", ErrAmbiguousToken},
		{"1e", ErrAmbiguousToken},
		{"1.5.2", ErrAmbiguousToken},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := newTestLexer().Scan(tt.src)
			if !errors.Is(err, Err) || !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScan_OperatorPriority(t *testing.T) {
	toks := scanTexts(t, newTestLexer(), "a.^b./c")

	got := make([]string, 0, len(toks))
	for _, tok := range toks[:len(toks)-1] {
		got = append(got, tok.Text)
	}

	if strings.Join(got, " ") != "a .^ b ./ c" {
		t.Errorf("unexpected tokens: %v", got)
	}
}

func TestScan_CommentsAndLines(t *testing.T) {
	toks := scanTexts(t, newTestLexer(), "# header\nx # trailing\n\n  + 1")

	if toks[0].Text != "x" || toks[0].Line != 2 {
		t.Errorf("expected x on line 2, got %q on line %d", toks[0].Text, toks[0].Line)
	}

	if toks[1].Text != "+" || toks[1].Line != 4 || toks[1].Column != 3 {
		t.Errorf("expected + at 4:3, got %q at %d:%d",
			toks[1].Text, toks[1].Line, toks[1].Column)
	}
}

func TestScan_Escapes(t *testing.T) {
	toks := scanTexts(t, newTestLexer(), `"a\tb\n\\\"\x41é\U0001F600\0"`)

	want := "a\tb\n\\\"Aé\U0001F600\x00"
	if toks[0].Text != want {
		t.Errorf("expected %q, got %q", want, toks[0].Text)
	}
}

func TestScan_LiteralErrors(t *testing.T) {
	tests := []struct {
		src  string
		want *pkg.Error
	}{
		{`"abc`, ErrUnterminated},
		{"'a\nb'", ErrUnterminated},
		{`"\q"`, ErrEscape},
		{`"\x4"`, ErrEscape},
		{`"\uZZZZ"`, ErrEscape},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := newTestLexer().Scan(tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScan_InvalidTokenSnippet(t *testing.T) {
	_, err := newTestLexer().Scan("x +\n  @abcdefghijklmnop")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	line, ok := pkg.Attr(err, "line")
	if !ok || line.Int64() != 2 {
		t.Errorf("expected line 2, got %v", line)
	}

	near, _ := pkg.Attr(err, "near")
	if near.String() != "@abcdefghi..." {
		t.Errorf("expected truncated snippet, got %q", near.String())
	}
}

func TestScan_EmptyInput(t *testing.T) {
	s, err := newTestLexer().Scan("  # nothing\n")
	if err != nil {
		t.Fatal(err)
	}

	if s.Len() != 1 || !s.At(0).IsEnd() || s.At(0).Text != "" {
		t.Errorf("expected only the end token, got %v", s.Tokens())
	}
}
