// Package log wraps log/slog with a component field and the field names
// shared by every fincal process.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger and stamps every record with its component.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	// Format is "text" (default) or "json".
	Format string
	Output io.Writer
	// Handler overrides Format and Output when set.
	Handler slog.Handler
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Format:    "text",
		Output:    os.Stdout,
	}
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if strings.EqualFold(config.Format, "json") {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}
	return &Logger{Logger: slog.New(handler), component: config.Component}
}

// Nop returns a logger that drops every record.
func Nop() *Logger {
	return New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(io.Discard, nil)})
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
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

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent returns a new logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) attrs(args []any) []any {
	return append([]any{FieldComponent, l.component}, args...)
}

func (l *Logger) Info(msg string, args ...any) { l.Logger.Info(msg, l.attrs(args)...) }

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.attrs(args)...)
}

func (l *Logger) Warn(msg string, args ...any) { l.Logger.Warn(msg, l.attrs(args)...) }

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.attrs(args)...)
}

func (l *Logger) Error(msg string, args ...any) { l.Logger.Error(msg, l.attrs(args)...) }

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, l.attrs(args)...)
}

func (l *Logger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.attrs(args)...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, l.attrs(args)...)
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}
