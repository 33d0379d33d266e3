package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("invalid JSON record %q: %v", line, err)
	}

	return m
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	// must not panic
	l.Info("ignored")
	l.With(slog.Int("k", 1)).Error("ignored")

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat || l.Tracing() {
		t.Error("unexpected settings on zero value logger")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelWarn), WithPretty(false))
	l.Info("dropped")
	l.Warn("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLogger_TraceLevel(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelTrace), WithPretty(false))
	if !l.Tracing() {
		t.Fatal("expected tracing to be enabled")
	}

	l.Trace("step", slog.String("rule", "expression"))

	rec := decode(t, buf.Bytes())
	if rec["level"] != "TRACE" || rec["rule"] != "expression" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLogger_WithAttrs(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false)).With(slog.String("component", "compiler"))
	l.Info("compiled", slog.Int("nodes", 7))

	rec := decode(t, buf.Bytes())
	if rec["component"] != "compiler" || rec["nodes"] != float64(7) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithPretty(false))
	text := base.Wrap(WithFormat(FormatText), WithTimeLayout("none"))

	text.Info("hello", slog.String("who", "world"))

	if got := strings.TrimSpace(buf.String()); got != "level=INFO msg=hello who=world" {
		t.Errorf("unexpected output: %q", got)
	}

	if base.Format() != FormatJSON {
		t.Error("wrap must not modify the original logger")
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("here")

	rec := decode(t, buf.Bytes())

	src, ok := rec["source"].(map[string]any)
	if !ok || !strings.HasSuffix(src["file"].(string), "log_test.go") {
		t.Errorf("expected caller in this file, got %v", rec["source"])
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	l := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithPretty(false))

	for i := range 32 {
		wg.Go(func() { l.Info("msg", slog.Int("i", i)) })
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 32 {
		t.Errorf("expected 32 records, got %d", n)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestPackageLogger(t *testing.T) {
	saved := Default()
	t.Cleanup(func() { defaultLog.Store(&saved) })

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelDebug), WithPretty(false), WithFormat(FormatJSON))

	tests := []struct {
		fn    func(string, ...slog.Attr)
		level string
	}{
		{Debug, "DEBUG"},
		{Info, "INFO"},
		{Warn, "WARN"},
		{Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			rec := decode(t, buf.Bytes())
			if rec["level"] != tt.level || rec["key"] != "value" {
				t.Errorf("unexpected record: %v", rec)
			}
		})
	}

	buf.Reset()
	TraceContext(t.Context(), "hidden")

	if buf.Len() != 0 {
		t.Errorf("trace record written at debug level: %s", buf.String())
	}
}
