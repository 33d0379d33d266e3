package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
)

// A bytes.Buffer is not a terminal, so the pretty handlers emit no escape
// sequences and the output can be compared directly.

func TestPrettyText(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none"))
	l.With(slog.String("fn", "sphere")).Info("evaluated",
		slog.Float64("f", 0.5),
		slog.Bool("ok", true),
		slog.Group("x", slog.Int("d", 2)),
	)

	want := "level=INFO msg=evaluated fn=sphere f=0.5 ok=true x.d=2"
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPrettyText_Group(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none"))
	l.Logger = l.WithGroup("cache")
	l.Info("hit", slog.String("key", "abc"))

	if got := strings.TrimSpace(buf.String()); !strings.HasSuffix(got, "cache.key=abc") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrettyJSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))
	l.Warn("odd value",
		slog.Float64("f", math.Inf(1)),
		slog.Any("err", errors.New("boom")),
		slog.Group("at", slog.Int("line", 3), slog.Int("column", 9)),
	)

	out := buf.String()
	if !strings.Contains(out, "\n  \"msg\": \"odd value\"") {
		t.Errorf("expected indented output, got:\n%s", out)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("pretty JSON is not valid JSON: %v\n%s", err, out)
	}

	at, _ := rec["at"].(map[string]any)
	if rec["level"] != "WARN" || rec["f"] != "+Inf" || rec["err"] != "boom" || at["column"] != float64(9) {
		t.Errorf("unexpected record %v", rec)
	}
}
