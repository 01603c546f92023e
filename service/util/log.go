package util

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

type ColorHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	level    slog.Leveler
	group    string
	preAttrs []slog.Attr
}

func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ColorHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.preAttrs = append(append([]slog.Attr{}, h.preAttrs...), h.qualify(attrs)...)
	return &newH
}

// WithGroup prefixes later attribute keys with name, dot separated.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	if h.group != "" {
		newH.group = h.group + "." + name
	} else {
		newH.group = name
	}
	return &newH
}

func (h *ColorHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	var color string

	switch r.Level {
	case slog.LevelDebug:
		color = colorGray
	case slog.LevelInfo:
		color = colorBlue
	case slog.LevelWarn:
		color = colorYellow
	case slog.LevelError:
		color = colorRed
	default:
		color = colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, _ = fmt.Fprintf(h.w, "%s%s%s [%s%s%s] %s", //nolint:errcheck
		colorGray, r.Time.Format("15:04:05"), colorReset,
		color, r.Level.String(), colorReset,
		r.Message)

	for _, a := range h.preAttrs {
		_, _ = fmt.Fprintf(h.w, " %s=%v", a.Key, a.Value) //nolint:errcheck
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		_, _ = fmt.Fprintf(h.w, " %s=%v", key, a.Value) //nolint:errcheck
		return true
	})

	_, _ = fmt.Fprintln(h.w) //nolint:errcheck
	return nil
}

func NewLogger(verbose bool) *slog.Logger {
	return NewLoggerTo(os.Stdout, verbose)
}

func NewLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(NewColorHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// DiscardLogger is used by tests and by components constructed without a logger.
func DiscardLogger() *slog.Logger {
	return NewLoggerTo(io.Discard, false)
}

func LogError(logger *slog.Logger, msg string, err error, attrs ...any) error {
	allAttrs := append([]any{"error", err}, attrs...)
	logger.Error(msg, allAttrs...)
	return fmt.Errorf("%s: %w", msg, err)
}
