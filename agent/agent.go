package agent

import (
	"context"
)

// EventType identifies a point in an invocation's lifecycle.
type EventType string

const (
	// EventInit fires once at the start of every invocation, after the
	// session has been resolved.
	EventInit EventType = "init"

	// EventProgress fires zero or more times while the invocation runs.
	EventProgress EventType = "progress"

	// EventResult fires once when the invocation produces its final text.
	EventResult EventType = "result"
)

// Event is a lifecycle notification emitted during an invocation. Events
// arrive in order: init, then any progress, then result.
type Event struct {
	Type      EventType
	SessionID string
	Message   string
	CostUSD   float64
}

// InvokeRequest describes a single delegated task.
type InvokeRequest struct {
	// Prompt is the full task text.
	Prompt string

	// SystemPrompt sets the behavioral frame for the session. Optional.
	SystemPrompt string

	// WorkingDir is the project directory the task concerns. It is
	// surfaced to the model as context.
	WorkingDir string

	// Model overrides the invoker's default model when non-empty.
	Model string

	// MaxTurns caps the number of exchanges a session may accumulate.
	// Zero means unlimited.
	MaxTurns int

	// MaxBudgetUSD caps the session's cumulative spend. Zero means
	// unlimited.
	MaxBudgetUSD float64

	// ResumeSessionID continues an earlier session so the model keeps its
	// context. Empty starts a fresh session.
	ResumeSessionID string

	// OnEvent receives lifecycle events when non-nil.
	OnEvent func(Event)
}

func (r InvokeRequest) emit(e Event) {
	if r.OnEvent != nil {
		r.OnEvent(e)
	}
}

// InvokeResult is the outcome of one completed invocation.
type InvokeResult struct {
	// ResultText is the model's final text for this turn.
	ResultText string

	// SessionID identifies the session; pass it back as ResumeSessionID
	// to continue.
	SessionID string

	// CostUSD is the spend for this turn only.
	CostUSD float64

	InputTokens  int
	OutputTokens int

	// NumTurns is the session's exchange count including this turn.
	NumTurns int
}

// Invoker runs delegated tasks against a model provider. Implementations
// are safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}

// tokenCost converts token counts to dollars given per-million-token rates.
func tokenCost(inputTokens, outputTokens int, inPerMTok, outPerMTok float64) float64 {
	return float64(inputTokens)*inPerMTok/1e6 + float64(outputTokens)*outPerMTok/1e6
}
