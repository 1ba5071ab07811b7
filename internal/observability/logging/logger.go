package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. JSON on stderr so structured output
// never mixes with the command's human-readable stdout.
func New(service, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, service, level)
}

func NewWithWriter(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		// warn default keeps interactive output quiet.
		return slog.LevelWarn
	}
}
