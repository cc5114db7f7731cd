// Package logging builds the slog loggers used by cgt commands.
//
// Console records are printed as "[Info/15:04]: message key=value", with
// warnings in yellow and errors in red when color is enabled. A second,
// optional sink receives every record in slog text or JSON form.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Options configures New.
type Options struct {
	// Console receives human-readable records. Nil disables the console sink.
	Console io.Writer
	// Level is the minimum console level.
	Level slog.Level
	// Color enables ANSI colors on the console.
	Color bool

	// File receives every record at debug level and above. Nil disables it.
	File io.Writer
	// FileFormat is "text" or "json".
	FileFormat string
}

// New creates a logger fanning out to the configured sinks.
func New(opts Options) *slog.Logger {
	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, NewConsoleHandler(opts.Console, opts.Level, opts.Color))
	}
	if opts.File != nil {
		fileOpts := &slog.HandlerOptions{Level: slog.LevelDebug}
		if opts.FileFormat == "json" {
			handlers = append(handlers, slog.NewJSONHandler(opts.File, fileOpts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(opts.File, fileOpts))
		}
	}

	switch len(handlers) {
	case 0:
		return Discard()
	case 1:
		return slog.New(handlers[0])
	default:
		return slog.New(fanout(handlers))
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog level. Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFileName returns the log file name for a command.
func LogFileName(command string) string {
	return command + "-latest.log"
}

// OpenLogFile creates (or truncates) <dir>/<command>-latest.log.
func OpenLogFile(dir, command string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName(command)), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ConsoleHandler renders records in the "[Level/HH:MM]: message" layout.
type ConsoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	color bool
	attrs []slog.Attr
	group string
	now   func() time.Time
}

// NewConsoleHandler returns a console handler writing to w.
func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	return &ConsoleHandler{mu: &sync.Mutex{}, w: w, level: level, color: color, now: time.Now}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = h.now()
	}

	var b strings.Builder
	color := ""
	if h.color {
		color = levelColor(r.Level)
	}
	b.WriteString(color)
	fmt.Fprintf(&b, "[%s/%s]: %s", levelName(r.Level), ts.Format("15:04"), r.Message)

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		if h.color && color == "" {
			b.WriteString(colorGray)
		}
		fmt.Fprintf(&b, " %s=%s", a.Key, formatValue(a.Value))
		if h.color && color == "" {
			b.WriteString(colorReset)
		}
	}
	if color != "" {
		b.WriteString(colorReset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return &clone
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func (h *ConsoleHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" && a.Key != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "Error"
	case l >= slog.LevelWarn:
		return "Warn"
	case l >= slog.LevelInfo:
		return "Info"
	default:
		return "Debug"
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	default:
		return ""
	}
}

// fanout dispatches every record to all handlers that accept it.
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
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
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
