package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, point ...float64) model {
	t.Helper()

	s := NewSession(point, testCatalog(t), discard)

	return newModel(t.Context(), s, NewHistory(""), discard)
}

func typeText(m model, s string) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})

	return m
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	return m.handleKey(tea.KeyMsg{Type: k})
}

func TestModel_SubmitDefinition(t *testing.T) {
	m := newTestModel(t, 1, 2)

	m = typeText(m, "var s = sum(x);")
	m, cmd := press(m, tea.KeyEnter)

	if cmd == nil {
		t.Fatal("expected output command")
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	if got := m.session.Names(); len(got) != 1 || got[0] != "s" {
		t.Errorf("expected definition s, got %v", got)
	}

	if m.history.Len() != 1 {
		t.Errorf("expected one history entry, got %d", m.history.Len())
	}
}

func TestModel_Evaluate(t *testing.T) {
	m := newTestModel(t, 3, 4)

	if got := m.evaluate("norm(x)"); !strings.Contains(got, "5") {
		t.Errorf("expected 5, got %q", got)
	}

	if got := m.evaluate("y + 1"); !strings.Contains(got, "unknown variable") {
		t.Errorf("expected unknown variable error, got %q", got)
	}
}

func TestModel_TabCompletion(t *testing.T) {
	m := newTestModel(t)

	for _, line := range []string{"var alpha = 1;", "var alpine = 2;"} {
		if _, err := m.session.Define(t.Context(), line); err != nil {
			t.Fatal(err)
		}
	}

	m = typeText(m, "alp")
	if len(m.matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(m.matches))
	}

	m, _ = press(m, tea.KeyTab)
	first := m.input.Value()

	m, _ = press(m, tea.KeyTab)
	second := m.input.Value()

	if first == second || !m.tabActive {
		t.Errorf("tab did not cycle: %q then %q", first, second)
	}

	m, _ = press(m, tea.KeyEsc)

	if m.input.Value() != "alp" || m.tabActive {
		t.Errorf("esc did not restore input: %q", m.input.Value())
	}

	if m.mode != modeEval {
		t.Error("esc during completion switched mode")
	}
}

func TestModel_SwitchMode(t *testing.T) {
	m := newTestModel(t)

	m = typeText(m, "1 +")
	m, _ = press(m, tea.KeyEsc)

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("expected empty command line, got mode %d %q", m.mode, m.input.Value())
	}

	m = typeText(m, "point 5 6")
	m, _ = press(m, tea.KeyEnter)

	if p := m.session.Point(); len(p) != 2 || p[0] != 5 || p[1] != 6 {
		t.Errorf("point not set: %v", p)
	}

	m, _ = press(m, tea.KeyEsc)

	if m.mode != modeEval || m.input.Value() != "1 +" {
		t.Errorf("eval input not restored: %q", m.input.Value())
	}
}

func TestModel_History(t *testing.T) {
	m := newTestModel(t)

	m = typeText(m, "1 + 1")
	m, _ = press(m, tea.KeyEnter)

	m, _ = press(m, tea.KeyEsc)
	m = typeText(m, "vars")
	m, _ = press(m, tea.KeyEnter)

	m, _ = press(m, tea.KeyUp)
	if m.input.Value() != "vars" || m.mode != modeCtrl {
		t.Errorf("expected vars in command mode, got %q", m.input.Value())
	}

	m, _ = press(m, tea.KeyUp)
	if m.input.Value() != "1 + 1" || m.mode != modeEval {
		t.Errorf("expected 1 + 1 in eval mode, got %q", m.input.Value())
	}

	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("expected empty input past newest entry, got %q", m.input.Value())
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)

	m = typeText(m, "abc")
	m, _ = press(m, tea.KeyCtrlC)

	if m.quitting || m.input.Value() != "" {
		t.Fatal("ctrl+c with input should only clear it")
	}

	m, cmd := press(m, tea.KeyCtrlC)
	if !m.quitting || cmd == nil {
		t.Error("ctrl+c on empty input should quit")
	}
}
