package logger

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// New builds a logger writing to w. format "json" selects structured JSON output;
// anything else gets the colourised console handler.
func New(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	} else {
		handler = tint.NewHandler(w, &tint.Options{Level: parseLevel(level)})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
