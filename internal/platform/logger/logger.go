package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps debug, info, warn and error to slog levels; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New initializes a JSON slog.Logger writing to stdout. When filename is set the
// output is duplicated into a size-rotated file.
func New(level, filename string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var out io.Writer = os.Stdout
	if filename != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    100, // megabytes
			MaxAge:     28,  // days
			MaxBackups: 7,
			Compress:   true,
		})
	}

	return slog.New(slog.NewJSONHandler(out, opts))
}
