package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "vars", "point", "fn", "info", "functions", "reset", "edit", "clear", "quit",
}

// catalogCommands take a catalog function name as their argument.
var catalogCommands = []string{"fn", "info"}

// isWordBoundary reports whether r separates identifiers. The dot belongs
// to the element-wise operators and to number literals, never to a name.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '.',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '^',
		'=', ',', ':', ';', '#':
		return true
	}

	return false
}

// wordBounds returns the word under the cursor and its byte offsets in
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// evalCandidates returns the names that may appear in an expression.
func evalCandidates(s *Session) []string {
	names := append(lang.Keywords(), lang.Input, lang.Lambda)
	names = append(names, s.Names()...)

	slices.Sort(names)

	return slices.Compact(names)
}

// ctrlCandidates returns completions for a command line whose current word
// starts at wordStart.
func ctrlCandidates(s *Session, input string, wordStart int) []string {
	fields := strings.Fields(input[:wordStart])

	switch {
	case len(fields) == 0:
		return ctrlCommands

	case len(fields) == 1 && slices.Contains(catalogCommands, fields[0]):
		if s.Catalog() == nil {
			return nil
		}

		return slices.Collect(s.Catalog().Names())

	default:
		return nil
	}
}

// computeMatches ranks the candidates for the word at the cursor.
func (m model) computeMatches() (fuzzy.Matches, int, int) {
	input := m.input.Value()

	word, start, end := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, start, end
	}

	var candidates []string
	if m.mode == modeCtrl {
		candidates = ctrlCandidates(m.session, input, start)
	} else {
		candidates = evalCandidates(m.session)
	}

	if len(candidates) == 0 {
		return nil, start, end
	}

	return fuzzy.Find(word, candidates), start, end
}

// renderCandidateBar renders the matches on one line, ellipsized to width.
func renderCandidateBar(matches fuzzy.Matches, selected int, tabbing bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabbing && i == selected)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		last := i == len(matches)-1
		if i > 0 && used+w+reserve > width && !(last && used+w <= width) {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate highlights the matched characters of match. Functions
// get a "()" suffix that is not inserted on completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

func isFunction(name string) bool {
	return name == lang.KeywordApply || slices.Contains(eval.FunctionNames(), name)
}
