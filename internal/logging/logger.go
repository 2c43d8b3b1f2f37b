// Package logging provides the leveled logger used across the server,
// the request handler, and the store watcher.
package logging

import (
	"fmt"
	"time"
)

// Logger provides leveled logging with an optional debug gate.
type Logger struct {
	debugEnabled bool
}

// New creates a new Logger with the given debug mode.
func New(debugEnabled bool) *Logger {
	return &Logger{debugEnabled: debugEnabled}
}

// Debug logs a debug message, only if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debugEnabled {
		return
	}
	l.printf("DEBUG", format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf("WARN", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf("ERROR", format, args...)
}

// IsDebugEnabled returns whether debug mode is enabled.
func (l *Logger) IsDebugEnabled() bool {
	return l.debugEnabled
}

func (l *Logger) printf(level, format string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] %s - %s\n", level, timestamp, fmt.Sprintf(format, args...))
}
