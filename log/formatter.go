package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// FormatEnv selects the handler built by New: "text" for aligned plain
// text, "color" for ANSI-colored text, anything else for JSON.
const FormatEnv = "LOG_FORMAT"

// LevelEnv sets the default logger's level at process start.
const LevelEnv = "LOG_LEVEL"

// ParseLevel parses a slog level from its string representation. The match
// is case-insensitive; unrecognised strings return LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelLabel returns the fixed-width name used in text output. Levels
// between the standard four take the nearest lower name, as slog does.
func levelLabel(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO "
	case l < slog.LevelError:
		return "WARN "
	default:
		return "ERROR"
	}
}

// ANSI escape codes for colored terminal output.
const (
	ansiReset  = "\033[0m"
	ansiGray   = "\033[37m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

func levelColor(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return ansiGray
	case l < slog.LevelWarn:
		return ansiGreen
	case l < slog.LevelError:
		return ansiYellow
	default:
		return ansiRed
	}
}

// TextHandler is a slog.Handler that renders each record as one line:
//
//	[2024-01-01 12:00:00] INFO  message key=value
//
// Attributes appear in declaration order, group names join their keys with
// dots. It is the handler behind LOG_FORMAT=text and LOG_FORMAT=color.
type TextHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	color bool

	prefix string // preformatted attrs inherited via WithAttrs
	groups string // dotted group path for subsequent keys
}

// NewTextHandler creates a TextHandler writing to w at the given level.
func NewTextHandler(w io.Writer, level slog.Leveler, color bool) *TextHandler {
	return &TextHandler{mu: new(sync.Mutex), w: w, level: level, color: color}
}

// Enabled implements slog.Handler.
func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return l >= min
}

// Handle implements slog.Handler.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString("[")
		b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
		b.WriteString("] ")
	}
	if h.color {
		b.WriteString(levelColor(r.Level))
		b.WriteString(levelLabel(r.Level))
		b.WriteString(ansiReset)
	} else {
		b.WriteString(levelLabel(r.Level))
	}
	b.WriteString(" ")
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.groups, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&b, h.groups, a)
	}
	h2.prefix = b.String()
	return &h2
}

// WithGroup implements slog.Handler.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = h.groups + name + "."
	return &h2
}

// appendAttr writes one " key=value" pair, expanding group attrs into
// dotted keys.
func appendAttr(b *strings.Builder, groups string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			appendAttr(b, groups+a.Key+".", ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(groups)
	b.WriteString(a.Key)
	b.WriteString("=")
	if v.Kind() == slog.KindTime {
		b.WriteString(v.Time().Format(time.RFC3339))
		return
	}
	fmt.Fprintf(b, "%v", v.Any())
}
