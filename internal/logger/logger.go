// Package logger provides structured slog loggers for the API server and the
// worker. All logs are written in JSON format.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a JSON slog.Logger at the given level.
// When logFile is empty the logger writes to stdout; otherwise it writes to
// the file with size-based rotation.
func New(logFile string, level slog.Level) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
