// Package logging provides real-time console output for batch execution.
// The manifest and the persisted result bundles are THE forensic record.
// This package provides optional real-time output for monitoring a batch,
// derived from orchestration events.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
// This is for real-time monitoring only - forensic analysis uses the
// manifest and result bundles.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	batchID   string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		batchID:   l.batchID,
	}
}

// WithBatchID returns a new logger with the given batch ID.
func (l *Logger) WithBatchID(batchID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		batchID:   batchID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.batchID != "" {
		fieldStr += " batch=" + l.batchID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event-derived logging methods ---
// These are called by the orchestrator and executor while outcomes are being
// recorded in the manifest. They provide real-time console output without
// duplicating data.

// BatchStart logs the start of a batch.
func (l *Logger) BatchStart(specCount int, parallel bool, concurrency int) {
	l.Info("batch_start", map[string]interface{}{
		"specs":       specCount,
		"parallel":    parallel,
		"concurrency": concurrency,
	})
}

// BatchComplete logs the completion of a batch.
func (l *Logger) BatchComplete(passed, failed int, costUSD float64, wall time.Duration) {
	l.Info("batch_complete", map[string]interface{}{
		"passed":   passed,
		"failed":   failed,
		"cost_usd": fmt.Sprintf("%.4f", costUSD),
		"wall":     wall.String(),
	})
}

// LevelStart logs the start of a dependency level.
func (l *Logger) LevelStart(level int, members []string) {
	l.Info("level_start", map[string]interface{}{
		"level":   level,
		"members": strings.Join(members, ","),
	})
}

// LevelComplete logs the barrier at the end of a dependency level.
func (l *Logger) LevelComplete(level int, duration time.Duration) {
	l.Info("level_complete", map[string]interface{}{
		"level":    level,
		"duration": duration.String(),
	})
}

// SpecStart logs the start of a single spec execution.
func (l *Logger) SpecStart(spec, mode string) {
	l.Info("spec_start", map[string]interface{}{
		"spec": spec,
		"mode": mode,
	})
}

// SpecComplete logs the terminal outcome of a spec execution.
func (l *Logger) SpecComplete(spec, status string, duration time.Duration, costUSD float64) {
	fields := map[string]interface{}{
		"spec":     spec,
		"status":   status,
		"duration": duration.String(),
		"cost_usd": fmt.Sprintf("%.4f", costUSD),
	}
	if status == "failed" {
		l.Error("spec_complete", fields)
	} else {
		l.Info("spec_complete", fields)
	}
}

// AgentRetry logs a transient agent failure and the backoff before retry.
func (l *Logger) AgentRetry(spec string, attempt int, backoff time.Duration, err error) {
	l.Warn("agent_retry", map[string]interface{}{
		"spec":    spec,
		"attempt": attempt,
		"backoff": backoff.String(),
		"error":   err.Error(),
	})
}

// VerifyRound logs a verification round and its outcome.
func (l *Logger) VerifyRound(spec string, round int, passed bool) {
	fields := map[string]interface{}{
		"spec":   spec,
		"round":  round,
		"passed": passed,
	}
	if passed {
		l.Debug("verify_round", fields)
	} else {
		l.Warn("verify_round", fields)
	}
}

// FalseSuccess logs a success overridden to failed by the signature guard.
func (l *Logger) FalseSuccess(spec, reason string) {
	l.Warn("false_success_override", map[string]interface{}{
		"spec":   spec,
		"reason": reason,
	})
}

// LockWait logs an attempt to acquire the manifest lock that had to back off.
func (l *Logger) LockWait(attempt int, backoff time.Duration) {
	l.Debug("lock_wait", map[string]interface{}{
		"attempt": attempt,
		"backoff": backoff.String(),
	})
}

// LockReclaimed logs reclamation of a stale lock left by a crashed holder.
func (l *Logger) LockReclaimed(age time.Duration) {
	l.Warn("lock_reclaimed", map[string]interface{}{
		"age": age.String(),
	})
}

// SpecSkipped logs a spec excluded from the batch by a selection modifier.
func (l *Logger) SpecSkipped(spec, reason string) {
	l.Debug("spec_skipped", map[string]interface{}{
		"spec":   spec,
		"reason": reason,
	})
}
