package memoize

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
)

// LogLevel defines the severity level for logging
type LogLevel int

const (
	// LogLevelDebug enables all log messages including detailed debugging
	LogLevelDebug LogLevel = iota

	// LogLevelInfo enables informational messages and above
	LogLevelInfo

	// LogLevelWarn enables warning messages and above
	LogLevelWarn

	// LogLevelError enables only error messages
	LogLevelError

	// LogLevelNone disables all logging
	LogLevelNone
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a case-insensitive level name to a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Logger defines the interface used for structured logging across memoproxy
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F is a convenience function to create a logging field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger implements Logger interface using Go's standard log package
type DefaultLogger struct {
	level  LogLevel
	logger *log.Logger
	fields []Field
}

// NewDefaultLogger creates a new logger with the specified level
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		logger: log.New(os.Stderr, "[MEMOPROXY] ", log.LstdFlags|log.Lmicroseconds),
	}
}

// Debug logs a debug message
func (dl *DefaultLogger) Debug(msg string, fields ...Field) {
	if dl.level <= LogLevelDebug {
		dl.log(LogLevelDebug, msg, fields...)
	}
}

// Info logs an info message
func (dl *DefaultLogger) Info(msg string, fields ...Field) {
	if dl.level <= LogLevelInfo {
		dl.log(LogLevelInfo, msg, fields...)
	}
}

// Warn logs a warning message
func (dl *DefaultLogger) Warn(msg string, fields ...Field) {
	if dl.level <= LogLevelWarn {
		dl.log(LogLevelWarn, msg, fields...)
	}
}

// Error logs an error message
func (dl *DefaultLogger) Error(msg string, fields ...Field) {
	if dl.level <= LogLevelError {
		dl.log(LogLevelError, msg, fields...)
	}
}

// With creates a new logger with additional fields
func (dl *DefaultLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(dl.fields)+len(fields))
	merged = append(merged, dl.fields...)
	merged = append(merged, fields...)

	return &DefaultLogger{level: dl.level, logger: dl.logger, fields: merged}
}

func (dl *DefaultLogger) log(level LogLevel, msg string, fields ...Field) {
	all := append(append([]Field(nil), dl.fields...), fields...)
	if len(all) == 0 {
		dl.logger.Printf("[%s] %s", level, msg)
		return
	}

	parts := make([]string, 0, len(all))
	for _, f := range all {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	dl.logger.Printf("[%s] %s | %s", level, msg, strings.Join(parts, " "))
}

// SlogLogger adapts a *slog.Logger to Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Debug logs a debug message
func (sl *SlogLogger) Debug(msg string, fields ...Field) {
	sl.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs(fields)...)
}

// Info logs an info message
func (sl *SlogLogger) Info(msg string, fields ...Field) {
	sl.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs(fields)...)
}

// Warn logs a warning message
func (sl *SlogLogger) Warn(msg string, fields ...Field) {
	sl.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs(fields)...)
}

// Error logs an error message
func (sl *SlogLogger) Error(msg string, fields ...Field) {
	sl.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs(fields)...)
}

// With creates a new logger with additional fields
func (sl *SlogLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, a := range attrs(fields) {
		args = append(args, a)
	}
	return &SlogLogger{logger: sl.logger.With(args...)}
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards all messages
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (nol *NoOpLogger) Debug(string, ...Field) {}
func (nol *NoOpLogger) Info(string, ...Field)  {}
func (nol *NoOpLogger) Warn(string, ...Field)  {}
func (nol *NoOpLogger) Error(string, ...Field) {}
func (nol *NoOpLogger) With(...Field) Logger   { return nol }

var (
	_ Logger = (*DefaultLogger)(nil)
	_ Logger = (*SlogLogger)(nil)
	_ Logger = (*NoOpLogger)(nil)
)
