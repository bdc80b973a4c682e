// Package logging configures the process-wide slog logger:
//   - tint (colourised text) when stderr is a terminal, JSON otherwise
//   - LOG_FORMAT override (text/json)
//   - LOG_LEVEL (debug/info/warn/error)
//   - run_id propagation through context
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type contextKey string

const runIDKey contextKey = "log_run_id"

var level = new(slog.LevelVar)

// Options controls handler construction. Empty fields fall back to the environment.
type Options struct {
	Format string
	Level  string
	Output io.Writer
}

// WithRunID stores the run identifier on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID extracts the run identifier, or "" if none is set.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(runIDKey).(string); ok {
		return s
	}
	return ""
}

// FromContext returns logger annotated with the run_id carried by ctx.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := RunID(ctx); id != "" {
		return logger.With("run_id", id)
	}
	return logger
}

// New builds a logger from opts.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	lvl := opts.Level
	if lvl == "" {
		lvl = os.Getenv("LOG_LEVEL")
	}
	level.Set(ParseLevel(lvl))

	if format == "text" || (format == "" && isTerminal(out)) {
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(out),
		}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// SetDefault builds a logger from the environment and installs it as slog's default.
func SetDefault() *slog.Logger {
	logger := New(Options{})
	slog.SetDefault(logger)
	return logger
}

// SetLevel changes the level of every logger built by New.
func SetLevel(l slog.Level) { level.Set(l) }

// ParseLevel converts a level name to slog.Level, defaulting to info.
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

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
