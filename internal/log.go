package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel orders verbosity from quietest to noisiest. A logger emits a
// message when its level is at or above the message's level.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// Logger is a thin leveled front over the standard log package, shared by
// the session, the executor and the transport layers.
type Logger struct {
	level LogLevel
}

// NewLogger creates a logger capped at the given level.
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger reads the LOG_LEVEL environment variable. Unset or
// unrecognized values mean INFO.
func NewDefaultLogger() *Logger {
	return NewLogger(parseLevel(os.Getenv("LOG_LEVEL")))
}

// parseLevel maps a level name to its LogLevel, case-insensitively.
func parseLevel(raw string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	}
	return LogLevelInfo
}

// Error logs failures that need operator attention.
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LogLevelError, "[ERROR] ", format, args...)
}

// Warn logs recoverable problems, like rejected requests.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf(LogLevelWarn, "[WARN] ", format, args...)
}

// Info logs lifecycle events: dataset loads, completed runs.
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LogLevelInfo, "[INFO] ", format, args...)
}

// Debug logs per-operation detail.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LogLevelDebug, "[DEBUG] ", format, args...)
}

// Trace logs the noisiest internals.
func (l *Logger) Trace(format string, args ...interface{}) {
	l.printf(LogLevelTrace, "[TRACE] ", format, args...)
}

func (l *Logger) printf(level LogLevel, prefix, format string, args ...interface{}) {
	if l.level >= level {
		log.Printf(prefix+format, args...)
	}
}

// GetLevel returns the configured level.
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// DefaultLogger is the process-wide logger used when a component is wired
// without an explicit one.
var DefaultLogger = NewDefaultLogger()
