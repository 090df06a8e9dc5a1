package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// HandlerOptions configures the handler returned by NewHandler.
type HandlerOptions struct {
	Level  slog.Leveler
	Format string
	Output io.Writer
}

// NewHandler creates the default slog handler for the service.
// A nil opts produces a JSON handler at info level writing to stdout.
func NewHandler(opts *HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(opts.Format, "text") {
		return slog.NewTextHandler(out, handlerOpts)
	}

	return slog.NewJSONHandler(out, handlerOpts)
}

// ParseLevel converts a config string into a slog level, defaulting to info.
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
