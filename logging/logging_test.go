package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("executor")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[executor]") {
		t.Errorf("expected component 'executor' in log, got: %s", output)
	}
}

func TestLogger_WithBatchID(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithBatchID("batch-123")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "batch=batch-123") {
		t.Errorf("expected batch id in log, got: %s", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("spec start", map[string]interface{}{
		"spec": "specs/auth.md",
	})

	output := buf.String()
	if !strings.Contains(output, "spec=specs/auth.md") {
		t.Errorf("expected field 'spec=specs/auth.md' in log, got: %s", output)
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("test")
	logger.SetOutput(&buf)

	logger.Info("hello world", map[string]interface{}{"key": "value"})

	output := buf.String()
	// Format: LEVEL TIMESTAMP [component] message key=value
	// Example: INFO  2026-02-05T04:00:00.000Z [test] hello world key=value
	if !strings.HasPrefix(output, "INFO ") {
		t.Errorf("expected line to start with 'INFO ', got: %s", output)
	}
	if !strings.Contains(output, "[test]") {
		t.Errorf("expected component [test], got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("expected message, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value, got: %s", output)
	}
}

func TestLogger_SpecComplete(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.SpecComplete("specs/auth.md", "failed", 2*time.Second, 0.42)

	output := buf.String()
	if !strings.Contains(output, "ERROR") {
		t.Error("failed spec should log at ERROR level")
	}
	if !strings.Contains(output, "status=failed") {
		t.Errorf("expected status field, got: %s", output)
	}

	buf.Reset()
	logger.SpecComplete("specs/auth.md", "passed", 2*time.Second, 0.42)
	if !strings.Contains(buf.String(), "INFO") {
		t.Error("passed spec should log at INFO level")
	}
}

func TestLogger_AgentRetry(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.AgentRetry("specs/db.md", 2, 500*time.Millisecond, errors.New("429"))

	output := buf.String()
	if !strings.Contains(output, "WARN") {
		t.Error("agent retry should be WARN level")
	}
	if !strings.Contains(output, "attempt=2") {
		t.Errorf("expected attempt field, got: %s", output)
	}
	if !strings.Contains(output, "backoff=500ms") {
		t.Errorf("expected backoff field, got: %s", output)
	}
}

func TestLogger_LevelBarrier(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.LevelStart(0, []string{"a", "b"})
	logger.LevelComplete(0, 10*time.Millisecond)

	output := buf.String()
	if !strings.Contains(output, "level_start") {
		t.Error("expected level_start log")
	}
	if !strings.Contains(output, "members=a,b") {
		t.Errorf("expected members list, got: %s", output)
	}
	if !strings.Contains(output, "level_complete") {
		t.Error("expected level_complete log")
	}
	if !strings.Contains(output, "duration=") {
		t.Error("expected duration in log")
	}
}
