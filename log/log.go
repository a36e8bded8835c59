package log

import (
	"log/slog"
	"os"
	"strings"
)

// L is the process-wide structured logger. Init must be called once at
// startup; before that L falls back to a text handler at info level so
// early failures are still visible.
var L *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	slog.Warn("Invalid log level, defaulting to info", "configuredLevel", levelStr)
	return slog.LevelInfo
}

// Init configures the global logger with a JSON handler at the given level.
func Init(levelStr string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(levelStr),
	})
	L = slog.New(handler)
	slog.SetDefault(L)
}

// InitText is for the CLI, where JSON logs would drown the rendered tables.
func InitText(levelStr string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(levelStr),
	})
	L = slog.New(handler)
	slog.SetDefault(L)
}
