package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/speckit/agent"
	"github.com/vinayprograms/speckit/config"
	"github.com/vinayprograms/speckit/errors"
	"github.com/vinayprograms/speckit/logging"
	"github.com/vinayprograms/speckit/manifest"
	"github.com/vinayprograms/speckit/resultstore"
	"github.com/vinayprograms/speckit/resume"
	"github.com/vinayprograms/speckit/verify"
)

// estimatedCostPerTaskUSD converts a dry-run task count into a rough spend
// estimate.
const estimatedCostPerTaskUSD = 0.50

// Task is one spec handed to the executor.
type Task struct {
	// Key is the manifest identity.
	Key string

	// Name is the human-readable spec name.
	Name string

	// Path is the absolute spec file path, empty for ad-hoc content.
	Path string

	// Content is the full spec text.
	Content string

	// Source is the provenance tag recorded in the manifest.
	Source string

	// WorkingDir is the project tree the work happens in.
	WorkingDir string

	// BatchID groups this run with the rest of its batch.
	BatchID string

	// Mode selects normal, plan-only, or dry-run framing.
	Mode Mode

	// VerifyCommands overrides auto-detected verification when non-empty.
	VerifyCommands []string
}

// Outcome is the terminal result of executing one task.
type Outcome struct {
	Key              string
	Status           manifest.Status
	RunID            string
	SessionID        string
	CostUSD          float64
	Duration         time.Duration
	Error            string
	ResultDir        string
	ResultText       string
	EstimatedCostUSD float64 // dry-run only
}

// Executor runs one spec to its terminal state: prompt, agent invocation
// with transient retries, verification feedback rounds, false-success
// inspection, then one durable bundle and one locked manifest append.
type Executor struct {
	invoker  agent.Invoker
	verifier *verify.Verifier
	results  *resultstore.Store
	store    *manifest.Store
	cfg      *config.Config
	logger   *logging.Logger

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor over the given collaborators.
func New(invoker agent.Invoker, verifier *verify.Verifier, results *resultstore.Store, store *manifest.Store, cfg *config.Config, logger *logging.Logger) *Executor {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.New()
	}
	if verifier == nil {
		verifier = verify.New(logger)
	}
	return &Executor{
		invoker:  invoker,
		verifier: verifier,
		results:  results,
		store:    store,
		cfg:      cfg,
		logger:   logger.WithComponent("executor"),
		sleep:    sleepContext,
	}
}

// Execute runs the task to a terminal outcome. The outcome is always
// persisted and recorded before returning; per-spec failures come back in
// the outcome, not as an error, so a batch can keep going.
func (e *Executor) Execute(ctx context.Context, task Task) Outcome {
	start := time.Now()
	out := Outcome{
		Key:   task.Key,
		RunID: uuid.NewString(),
	}

	e.logger.SpecStart(task.Key, task.Mode.String())

	res, err := e.invokeWithRetry(ctx, task, BuildPrompt(task.Name, task.Content, task.Mode), "")
	if err != nil {
		out.Status = manifest.StatusFailed
		out.Error = err.Error()
		e.finish(task, &out, start)
		return out
	}
	out.SessionID = res.SessionID
	out.CostUSD += res.CostUSD
	out.ResultText = res.ResultText

	switch task.Mode {
	case ModePlanOnly:
		out.Status = manifest.StatusPassed
	case ModeDryRun:
		count := ParseTaskCount(res.ResultText)
		out.EstimatedCostUSD = float64(count) * estimatedCostPerTaskUSD
		out.Status = manifest.StatusPassed
	default:
		e.verifyLoop(ctx, task, &out)
	}

	if out.Status == manifest.StatusPassed && IsFalseSuccess(out.ResultText, out.CostUSD) {
		e.logger.FalseSuccess(task.Key, "result text matches a known error signature")
		out.Status = manifest.StatusFailed
		out.Error = "agent reported success but the result matches a known upstream error: " + strings.TrimSpace(out.ResultText)
	}

	e.finish(task, &out, start)
	return out
}

// invokeWithRetry calls the agent, retrying transient failures with
// doubling backoff up to the configured attempt total. Any other error
// propagates immediately.
func (e *Executor) invokeWithRetry(ctx context.Context, task Task, prompt, resumeSession string) (*agent.InvokeResult, error) {
	backoff := e.cfg.RetryBackoff.Duration()

	var lastErr error
	for attempt := 1; attempt <= e.cfg.TransientAttempts; attempt++ {
		res, err := e.invoker.Invoke(ctx, agent.InvokeRequest{
			Prompt:          prompt,
			WorkingDir:      task.WorkingDir,
			Model:           e.cfg.Model,
			MaxTurns:        e.cfg.MaxTurns,
			MaxBudgetUSD:    e.cfg.MaxBudgetUSD,
			ResumeSessionID: resumeSession,
		})
		if err == nil {
			return res, nil
		}
		if !IsTransientFailure(err) {
			return nil, err
		}
		lastErr = err
		if attempt == e.cfg.TransientAttempts {
			break
		}

		e.logger.AgentRetry(task.Key, attempt, backoff, err)
		if err := e.sleep(ctx, backoff); err != nil {
			return nil, errors.Wrap(err, "agent invocation interrupted")
		}
		backoff *= 2
	}
	return nil, errors.TransientAgent(
		fmt.Sprintf("agent failed %d attempts", e.cfg.TransientAttempts),
		errors.WithCause(lastErr), errors.WithSpecKey(task.Key),
	)
}

// sleepContext waits out the backoff but wakes immediately on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// verifyLoop runs verification and feeds failures back to the agent's
// session, up to the configured total rounds. On exhaustion the outcome is
// failed with every round's error text.
func (e *Executor) verifyLoop(ctx context.Context, task Task, out *Outcome) {
	var collected []string

	for round := 1; ; round++ {
		res := e.verifier.Verify(ctx, task.WorkingDir, task.VerifyCommands)
		e.logger.VerifyRound(task.Key, round, res.Passed)
		if res.Passed {
			out.Status = manifest.StatusPassed
			return
		}
		collected = append(collected, res.Errors)

		if round == e.cfg.VerifyRounds {
			out.Status = manifest.StatusFailed
			out.Error = strings.Join(collected, "\n\n")
			return
		}

		fix, err := e.invokeWithRetry(ctx, task, BuildFeedbackPrompt(res.Errors), out.SessionID)
		if err != nil {
			out.Status = manifest.StatusFailed
			collected = append(collected, err.Error())
			out.Error = strings.Join(collected, "\n\n")
			return
		}
		out.SessionID = fix.SessionID
		out.CostUSD += fix.CostUSD
		out.ResultText = fix.ResultText
	}
}

// finish persists the bundle and records the run, one locked manifest
// update per terminal outcome.
func (e *Executor) finish(task Task, out *Outcome, start time.Time) {
	out.Duration = time.Since(start)

	summary := resultstore.Summary{
		SpecKey:         task.Key,
		SpecName:        task.Name,
		Source:          task.Source,
		RunID:           out.RunID,
		BatchID:         task.BatchID,
		SessionID:       out.SessionID,
		Status:          out.Status,
		CostUSD:         out.CostUSD,
		DurationSeconds: out.Duration.Seconds(),
		Timestamp:       time.Now().UTC(),
		Error:           out.Error,
	}

	if e.results != nil {
		dir, err := e.results.Persist(summary, e.transcript(task, out))
		if err != nil {
			e.logger.Error("result bundle not persisted", map[string]interface{}{
				"spec": task.Key, "error": err.Error(),
			})
		} else {
			out.ResultDir = dir
		}
	}

	if e.store != nil {
		err := e.store.WithLock(func(m *manifest.Manifest) error {
			entry := m.FindOrCreateEntry(task.Key, task.Source)
			entry.AppendRun(manifest.Run{
				RunID:           out.RunID,
				BatchID:         task.BatchID,
				Timestamp:       summary.Timestamp,
				ResultPath:      out.ResultDir,
				Status:          out.Status,
				CostUSD:         out.CostUSD,
				DurationSeconds: out.Duration.Seconds(),
			})
			return nil
		})
		if err != nil {
			e.logger.Error("manifest not updated", map[string]interface{}{
				"spec": task.Key, "error": err.Error(),
			})
		}
	}

	e.logger.SpecComplete(task.Key, string(out.Status), out.Duration, out.CostUSD)
}

// transcript renders the human-readable half of the bundle.
func (e *Executor) transcript(task Task, out *Outcome) string {
	var b strings.Builder
	b.WriteString("# ")
	if task.Name != "" {
		b.WriteString(task.Name)
	} else {
		b.WriteString(task.Key)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "- Status: %s\n", out.Status)
	fmt.Fprintf(&b, "- Run: %s\n", out.RunID)
	if task.BatchID != "" {
		fmt.Fprintf(&b, "- Batch: %s\n", task.BatchID)
	}
	fmt.Fprintf(&b, "- Cost: $%.4f\n", out.CostUSD)
	fmt.Fprintf(&b, "- Duration: %.1fs\n", out.Duration.Seconds())
	if out.EstimatedCostUSD > 0 {
		fmt.Fprintf(&b, "- Estimated cost: $%.2f\n", out.EstimatedCostUSD)
	}

	if out.ResultText != "" {
		b.WriteString("\n## Agent result\n\n")
		b.WriteString(strings.TrimSpace(out.ResultText))
		b.WriteString("\n")
	}
	if out.Error != "" {
		b.WriteString("\n## Errors\n\n")
		b.WriteString("```\n")
		b.WriteString(strings.TrimSpace(out.Error))
		b.WriteString("\n```\n")
	}

	if out.Status == manifest.StatusFailed {
		inst := resume.Instruction{
			SessionID:  out.SessionID,
			WorkingDir: task.WorkingDir,
			SpecPath:   task.Path,
			SpecKey:    task.Key,
		}
		if rendered := inst.Render(); rendered != "" {
			b.WriteString("\n")
			b.WriteString(rendered)
		}
	}
	return b.String()
}
