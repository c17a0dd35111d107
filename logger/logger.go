package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger writes JSON lines tagged with the service name, host and the action
// being performed.
type Logger struct {
	service  string
	hostname string
	handler  *slog.Logger
}

func New(service, level string) *Logger {
	return NewWithWriter(os.Stdout, service, level)
}

func NewWithWriter(w io.Writer, service, level string) *Logger {
	hostname, _ := os.Hostname()
	handler := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	return &Logger{
		service:  service,
		hostname: hostname,
		handler:  handler,
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "discard", "error")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func (l *Logger) base(action string) []slog.Attr {
	return []slog.Attr{
		slog.String("service", l.service),
		slog.String("hostname", l.hostname),
		slog.String("action", action),
	}
}

func (l *Logger) Info(action, message string, attrs ...slog.Attr) {
	l.handler.LogAttrs(context.Background(), slog.LevelInfo, message, append(l.base(action), attrs...)...)
}

func (l *Logger) Debug(action, message string, attrs ...slog.Attr) {
	l.handler.LogAttrs(context.Background(), slog.LevelDebug, message, append(l.base(action), attrs...)...)
}

func (l *Logger) Warn(action, message string, attrs ...slog.Attr) {
	l.handler.LogAttrs(context.Background(), slog.LevelWarn, message, append(l.base(action), attrs...)...)
}

func (l *Logger) Error(action, message string, err error, attrs ...slog.Attr) {
	attrs = append(l.base(action), attrs...)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.handler.LogAttrs(context.Background(), slog.LevelError, message, attrs...)
}
