// Package debug holds the process-wide log/slog logger used by the
// planner, the executor and the connectors.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

var (
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
)

func init() {
	Init(false)
}

// Init installs a text logger on stderr. When enable is false only errors
// are written.
func Init(enable bool) {
	InitWriter(os.Stderr, enable)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, enable bool) {
	level := slog.LevelError
	if enable {
		level = slog.LevelDebug
	}
	SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), enable)
}

// SetLogger replaces the logger, for callers that bring their own handler.
func SetLogger(l *slog.Logger, enable bool) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	enabled = enable
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { Logger().Info(msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Call returns a logger tagged with a fresh call id, and the id.
func Call(base *slog.Logger) (*slog.Logger, string) {
	if base == nil {
		base = Logger()
	}
	id := uuid.NewString()
	return base.With("call", id), id
}
