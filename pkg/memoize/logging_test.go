package memoize

import (
	"bytes"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(LogLevelWarn)
	logger.logger = log.New(&buf, "", 0)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message", F("key", "k1"))
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Fatalf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn message | key=k1") {
		t.Fatalf("Expected formatted warning, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error message") {
		t.Fatalf("Expected error line, got %q", out)
	}
}

func TestDefaultLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	base := NewDefaultLogger(LogLevelDebug)
	base.logger = log.New(&buf, "", 0)

	child := base.With(F("pass", "p1"))
	child.Info("generated", F("service", "calc"))
	base.Info("plain")

	out := buf.String()
	if !strings.Contains(out, "generated | pass=p1 service=calc") {
		t.Fatalf("Expected inherited fields, got %q", out)
	}
	if strings.Contains(out, "plain | pass=p1") {
		t.Fatalf("With must not mutate the parent, got %q", out)
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlogLogger(slog.New(handler)).With(F("pass", "p1"))

	logger.Debug("wiped", F("count", 2))

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "msg=wiped", "pass=p1", "count=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Expected %q in %q", want, out)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"off":     LogLevelNone,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatal("Expected error for unknown level")
	}
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NewNoOpLogger()
	logger.Error("ignored")
	if logger.With(F("a", 1)) != logger {
		t.Fatal("Expected NoOpLogger.With to return itself")
	}
}
