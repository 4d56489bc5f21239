package logsink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TimeFormat matches the timestamp layout of the session log.
const TimeFormat = "2006-01-02 15:04:05,000"

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Level slog.Leveler
	// Name is printed between timestamp and level when non-empty.
	Name string
	// Styles colors whole lines by level bucket. Nil means plain output.
	Styles map[slog.Level]lipgloss.Style
}

// Handler writes one "timestamp - LEVEL - message" line per record.
type Handler struct {
	w      io.Writer
	mu     *sync.Mutex
	opts   HandlerOptions
	attrs  string
	prefix string // group prefix for attribute keys
}

// NewHandler creates a Handler writing to w.
func NewHandler(w io.Writer, opts HandlerOptions) *Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &Handler{w: w, mu: &sync.Mutex{}, opts: opts}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(TimeFormat))
	b.WriteString(" - ")
	if h.opts.Name != "" {
		b.WriteString(h.opts.Name)
		b.WriteString(" - ")
	}
	b.WriteString(LevelName(r.Level))
	b.WriteString(" - ")
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})

	line := b.String()
	if style, ok := h.style(r.Level); ok {
		line = style.Render(line)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *Handler) style(level slog.Level) (lipgloss.Style, bool) {
	if h.opts.Styles == nil {
		return lipgloss.Style{}, false
	}
	var bucket slog.Level
	switch {
	case level >= slog.LevelError:
		bucket = slog.LevelError
	case level >= slog.LevelWarn:
		bucket = slog.LevelWarn
	case level >= slog.LevelInfo:
		bucket = slog.LevelInfo
	default:
		bucket = slog.LevelDebug
	}
	s, ok := h.opts.Styles[bucket]
	return s, ok
}

// LevelName returns the level label used in log lines.
func LevelName(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARNING"
	case slog.LevelError:
		return "ERROR"
	default:
		return level.String()
	}
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	s := a.Value.String()
	if s == "" || strings.ContainsAny(s, " =\"") {
		s = strconv.Quote(s)
	}
	b.WriteString(s)
}

// Fanout returns a handler that passes every record to each of handlers.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanout(handlers)
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
