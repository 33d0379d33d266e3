package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handlers. Styles come from a
// renderer bound to the output writer, so color is dropped automatically
// when the writer is not a terminal.
type palette struct {
	key, str, num, on, off, dur, null, msg lipgloss.Style
	level                                  map[Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:  r.NewStyle().Faint(true),
		str:  fg("6"),
		num:  fg("3"),
		on:   fg("2"),
		off:  fg("1"),
		dur:  fg("5"),
		null: r.NewStyle().Faint(true),
		msg:  r.NewStyle().Bold(true),
		level: map[Level]lipgloss.Style{
			LevelTrace: fg("5"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3").Bold(true),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p *palette) levelName(l slog.Level) string {
	lv := Level(l)
	name := strings.ToUpper(lv.String())

	for _, ref := range []Level{LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace} {
		if lv >= ref {
			return p.level[ref].Render(name)
		}
	}

	return p.level[LevelTrace].Render(name)
}

// scalar renders a resolved non-group value. quote selects JSON string
// quoting.
func (p *palette) scalar(v slog.Value, quote bool) string {
	switch v.Kind() {
	case slog.KindString:
		if quote {
			b, _ := json.Marshal(v.String())

			return p.str.Render(string(b))
		}

		return p.str.Render(v.String())

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.on.Render("true")
		}

		return p.off.Render("false")

	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())

	case slog.KindTime:
		return p.str.Render(v.Time().Format(time.RFC3339Nano))

	default:
		a := v.Any()
		if a == nil {
			return p.null.Render("null")
		}

		if err, ok := a.(error); ok {
			return p.off.Render(err.Error())
		}

		return p.scalar(slog.StringValue(fmt.Sprint(a)), quote)
	}
}

// handlerState is shared by both pretty handlers.
type handlerState struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	pal        *palette
	mu         *sync.Mutex
	w          io.Writer
	attrs      []slog.Attr // added by WithAttrs, already qualified by group
	groups     []string
}

func newHandlerState(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) handlerState {
	if ft == nil {
		ft = makeFormatTimeFunc(DefaultTimeLayout)
	}

	return handlerState{
		opts:       *opts,
		formatTime: ft,
		pal:        newPalette(w),
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h handlerState) enabled(level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

// nest wraps attrs in the current groups, innermost last.
func (h handlerState) nest(attrs []slog.Attr) []slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: h.groups[i], Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h handlerState) withAttrs(attrs []slog.Attr) handlerState {
	h.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.nest(attrs)...)

	return h
}

func (h handlerState) withGroup(name string) handlerState {
	if name != "" {
		h.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	}

	return h
}

// header returns the built-in fields of r in output order.
func (h handlerState) header(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		if s := h.formatTime(r.Time); s != "" {
			out = append(out, slog.String(slog.TimeKey, s))
		}
	}

	out = append(out, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			out = append(out, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	return append(out, slog.String(slog.MessageKey, r.Message))
}

func (h handlerState) body(r slog.Record) []slog.Attr {
	own := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	return append(append([]slog.Attr(nil), h.attrs...), h.nest(own)...)
}

func (h handlerState) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes one colorized key=value line per record.
type prettyTextHandler struct{ handlerState }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyTextHandler {
	return &prettyTextHandler{newHandlerState(w, opts, ft)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	for _, a := range h.header(r) {
		switch a.Key {
		case slog.LevelKey:
			h.field(&buf, a.Key, h.pal.levelName(a.Value.Any().(slog.Level)))
		case slog.MessageKey:
			h.field(&buf, a.Key, h.pal.msg.Render(a.Value.String()))
		default:
			h.attr(&buf, "", a)
		}
	}

	for _, a := range h.body(r) {
		h.attr(&buf, "", a)
	}

	return h.write(&buf)
}

func (h *prettyTextHandler) field(buf *bytes.Buffer, key, value string) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.pal.key.Render(key + "="))
	buf.WriteString(value)
}

// attr flattens groups into dotted keys.
func (h *prettyTextHandler) attr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			h.attr(buf, key, g)
		}

		return
	}

	h.field(buf, key, h.pal.scalar(a.Value, false))
}

// prettyJSONHandler writes each record as an indented, colorized JSON
// object.
type prettyJSONHandler struct{ handlerState }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyJSONHandler {
	return &prettyJSONHandler{newHandlerState(w, opts, ft)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	fields := h.header(r)
	for i, a := range fields {
		if a.Key == slog.LevelKey {
			fields[i].Value = slog.StringValue(strings.ToUpper(Level(a.Value.Any().(slog.Level)).String()))
		}
	}

	h.object(&buf, append(fields, h.body(r)...), 0)

	return h.write(&buf)
}

func (h *prettyJSONHandler) object(buf *bytes.Buffer, attrs []slog.Attr, depth int) {
	pad := strings.Repeat("  ", depth+1)
	first := true

	buf.WriteByte('{')

	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		key, _ := json.Marshal(a.Key)

		buf.WriteByte('\n')
		buf.WriteString(pad)
		buf.WriteString(h.pal.key.Render(string(key)))
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			h.object(buf, a.Value.Group(), depth+1)

			continue
		}

		h.value(buf, a.Value)
	}

	if !first {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", depth))
	}

	buf.WriteByte('}')
}

func (h *prettyJSONHandler) value(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString, slog.KindInt64, slog.KindUint64, slog.KindBool:
		buf.WriteString(h.pal.scalar(v, true))

	case slog.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// NaN and infinities have no JSON number form
			buf.WriteString(h.pal.scalar(slog.StringValue(strconv.FormatFloat(f, 'g', -1, 64)), true))

			return
		}

		buf.WriteString(h.pal.scalar(v, true))

	default:
		buf.WriteString(h.pal.scalar(slog.StringValue(h.pal.plain(v)), true))
	}
}

// plain renders v without styling.
func (p *palette) plain(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	}

	if err, ok := v.Any().(error); ok {
		return err.Error()
	}

	return fmt.Sprint(v.Any())
}
