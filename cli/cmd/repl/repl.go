package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loreleva/Bbo-functions/lang"
	"github.com/loreleva/Bbo-functions/lang/eval"
	"github.com/loreleva/Bbo-functions/log"
)

// editDoneMsg is sent when the external editor returns.
type editDoneMsg struct {
	edited bool
	err    error
}

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help          Print this help
  vars          List variable definitions
  point [X]     Show or set the input point x
  fn NAME       Evaluate a catalog function at x
  info NAME     Show catalog function metadata
  functions     List built-in functions
  reset         Remove all variable definitions
  edit          Edit variable definitions in $EDITOR
  clear         Clear screen
  quit          Exit REPL

Usage:
  Type an expression to evaluate it at x
  Type "var name = expression;" to define a variable
  Press Tab / Shift-Tab to cycle through completions
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode is the kind of line being typed.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// model is the Bubble Tea model of the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *Session
	logger     log.Logger
	history    *History
	historyIdx int
	matches    fuzzy.Matches
	wordStart  int
	wordEnd    int
	suggIdx    int
	tabActive  bool
	preTab     string
	preCursor  int
	width      int
	quitting   bool
	mode       inputMode
	saved      [2]struct {
		text   string
		cursor int
	}
}

// Run starts an interactive session. History is kept in cacheDir.
func Run(ctx context.Context, session *Session, cacheDir string, logger log.Logger) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("dimension", len(session.Point())),
	)

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	p := tea.NewProgram(newModel(ctx, session, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, session *Session, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		switch {
		case errors.Is(msg.err, ErrEditDeclined):
			return m, tea.Println(hintStyle.Render("edit discarded"))
		case msg.err != nil:
			return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
		case !msg.edited:
			return m, tea.Println(hintStyle.Render("edit cancelled"))
		default:
			return m, tea.Println(resultStyle.Render(
				fmt.Sprintf("%d definitions", len(m.session.Names()))))
		}
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())))

	case strings.TrimSpace(input) == "":
		if m.mode == modeEval {
			b.WriteString(hintStyle.Render(fmt.Sprintf(
				"x = %v; type an expression or press Esc for commands",
				m.session.Point())))
		} else {
			b.WriteString(hintStyle.Render("type help for commands (press Esc to return)"))
		}

	case call.inCall && m.mode == modeEval && len(m.matches) == 0:
		if params, result, ok := signature(call.name); ok {
			b.WriteString(renderSignatureHint(call.name, params, result, call.argIndex))
		}

	default:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			m.refreshMatches(true)

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.recall(m.historyIdx - 1), nil

	case tea.KeyDown:
		return m.recall(m.historyIdx + 1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTab)
			m.input.SetCursor(m.preCursor)
			m.refreshMatches(false)

			return m, nil
		}

		return m.switchMode(1 - m.mode), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.Type == tea.KeySpace {
			m.tabActive = false
		}

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refreshMatches(true)

		return m, cmd
	}

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(false)

	return m, cmd
}

// cycle moves the tab selection by step and inserts the candidate.
func (m model) cycle(step int) model {
	switch len(m.matches) {
	case 0:
		return m
	case 1:
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTab = m.input.Value()
		m.preCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the word being completed with s.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

// refreshMatches recomputes the completions. With confirm set, a word that
// already equals its only candidate is accepted.
func (m *model) refreshMatches(confirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if confirm && len(m.matches) == 1 &&
		m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

// recall shows history entry i, switching to its mode. Moving past the
// newest entry clears the input.
func (m model) recall(i int) model {
	if i < 0 {
		return m
	}

	e, err := m.history.Entry(i)
	if err != nil {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)

		return m
	}

	m.historyIdx = i

	if e.Mode != m.mode {
		m = m.switchMode(e.Mode)
	}

	m.input.SetValue(e.Line)
	m.input.SetCursor(len(e.Line))
	m.refreshMatches(false)

	return m
}

// switchMode changes the input mode, keeping the text typed in each mode.
func (m model) switchMode(mode inputMode) model {
	m.saved[m.mode].text = m.input.Value()
	m.saved[m.mode].cursor = m.input.Position()

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.refreshMatches(false)

	return m
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.execute(input)
	}

	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))

	return m, tea.Sequence(echo, tea.Println(m.evaluate(input)))
}

// evaluate runs an eval-mode line and renders its outcome.
func (m model) evaluate(input string) string {
	ctx := m.ctxFunc()

	if IsDefinition(input) {
		name, err := m.session.Define(ctx, input)
		if err != nil {
			return renderError(input, err)
		}

		return hintStyle.Render("defined " + name)
	}

	v, err := m.session.Evaluate(ctx, input)
	if err != nil {
		m.logger.TraceContext(ctx, "repl eval failed", slog.Any("error", err))

		return renderError(m.session.Source()+input, err)
	}

	return resultStyle.Render(v.String())
}

// renderError renders err with the source line it points at, if any.
func renderError(src string, err error) string {
	s := errorStyle.Render("error: " + err.Error())

	if snippet := lang.Snippet(src, err); snippet != "" {
		s += "\n" + hintStyle.Render(strings.TrimSuffix(snippet, "\n"))
	}

	return s
}

func (m model) execute(input string) (model, tea.Cmd) {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)
	ctx := m.ctxFunc()

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	m.logger.TraceContext(ctx, "repl command",
		slog.String("command", cmd),
		slog.String("args", args),
	)

	out := func(s string) (model, tea.Cmd) {
		return m, tea.Sequence(echo, tea.Println(s))
	}

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return out(helpMessage)

	case "vars":
		return out(m.session.Source())

	case "point":
		if args != "" {
			if err := m.session.SetPoint(args); err != nil {
				return out(errorStyle.Render("error: " + err.Error()))
			}
		}

		return out(resultStyle.Render(fmt.Sprintf("x = %v", m.session.Point())))

	case "fn":
		y, err := m.session.EvaluateFunction(ctx, args)
		if err != nil {
			return out(errorStyle.Render("error: " + err.Error()))
		}

		return out(resultStyle.Render(eval.ScalarValue(y).String()))

	case "info":
		s, err := m.session.Describe(args)
		if err != nil {
			return out(errorStyle.Render("error: " + err.Error()))
		}

		return out(s)

	case "functions":
		var b strings.Builder
		for _, s := range eval.Functions() {
			b.WriteString("  " + s.String() + "\n")
		}

		return out(b.String())

	case "reset":
		m.session.Reset()

		return out(hintStyle.Render("definitions removed"))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		edit := &editCommand{session: m.session, ctxFunc: m.ctxFunc, logger: m.logger}

		return m, tea.Sequence(echo, tea.Exec(edit, func(err error) tea.Msg {
			return editDoneMsg{edited: edit.edited, err: err}
		}))

	default:
		return m, tea.Println(errorStyle.Render("unknown command: " + cmd + " (try 'help')"))
	}
}
