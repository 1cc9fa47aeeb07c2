// Package logging builds the process logger and the HTTP access-log middleware.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config level name to a slog.Level. Unknown names yield info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// Setup creates the process logger: text to stderr and, when logFile is set,
// JSON to that file as well. The returned cleanup closes the file.
func Setup(level, logFile string) (*slog.Logger, func() error) {
	lvl := ParseLevel(level)
	noop := func() error { return nil }
	if logFile == "" {
		return SetupWithWriters(os.Stderr, nil, lvl), noop
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		logger := SetupWithWriters(os.Stderr, nil, lvl)
		logger.Error("failed to create log directory, using stderr only", "error", err, "file", logFile)
		return logger, noop
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := SetupWithWriters(os.Stderr, nil, lvl)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return logger, noop
	}

	return SetupWithWriters(os.Stderr, file, lvl), file.Close
}

// SetupWithWriters writes text records to stderr and, when file is non-nil,
// fans the same records out as JSON to file.
func SetupWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if file == nil {
		return slog.New(stderrHandler)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
