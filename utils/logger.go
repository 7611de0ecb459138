package utils

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger provides leveled logging throughout the application.
// Messages are printf-style and prefixed with the component, e.g. "[merger] ...".
type Logger struct {
	l *log.Logger
}

// NewLogger creates a Logger writing to stderr at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr, "info")
}

// NewLoggerTo creates a Logger writing to w at the named level
// (debug, info, warn, error). Unknown levels fall back to info.
func NewLoggerTo(w io.Writer, level string) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return &Logger{l: l}
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *Logger {
	return NewLoggerTo(io.Discard, "error")
}

// With returns a child logger that attaches the key/value pairs to every line.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: l.l.With(keyvals...)}
}

func (l *Logger) Info(format string, args ...any) {
	l.l.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.l.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.l.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.l.Debugf(format, args...)
}
