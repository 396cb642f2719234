package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	oerrors "github.com/vinayprograms/speckit/errors"
)

func TestInferProvider(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-20250514", "anthropic"},
		{"Claude-opus", "anthropic"},
		{"gpt-4o", "openai"},
		{"o3-mini", "openai"},
		{"chatgpt-4o-latest", "openai"},
		{"gemini-2.5-pro", "gemini"},
		{"gemma-7b", "gemini"},
		{"llama-3-70b", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := InferProvider(tt.model); got != tt.want {
			t.Errorf("InferProvider(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(Options{Provider: "mystery", Model: "x", APIKey: "k"}); err == nil {
		t.Error("unknown provider accepted")
	}
	if _, err := New(Options{Model: "llama-3-70b", APIKey: "k"}); err == nil {
		t.Error("uninferable model accepted")
	}
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	if _, err := NewAnthropicInvoker(AnthropicOptions{Model: "claude-sonnet-4-20250514"}); err == nil {
		t.Error("anthropic invoker created without api key")
	}
	if _, err := NewOpenAIInvoker(OpenAIOptions{APIKey: "k"}); err == nil {
		t.Error("openai invoker created without model")
	}
}

func TestSessionStoreResume(t *testing.T) {
	store := newSessionStore()

	fresh := store.resume("")
	if fresh.id == "" {
		t.Fatal("fresh session has no id")
	}

	same := store.resume(fresh.id)
	if same != fresh {
		t.Error("known id did not return the same session")
	}

	other := store.resume("no-such-session")
	if other == fresh || other.id == fresh.id {
		t.Error("unknown id should start a fresh session")
	}
}

func TestSessionRecordAccumulates(t *testing.T) {
	sess := &session{id: "s"}
	sess.record("do it", "done", 0.25)
	sess.record("fix it", "fixed", 0.50)

	if sess.turns != 2 {
		t.Errorf("turns = %d, want 2", sess.turns)
	}
	if sess.costUSD != 0.75 {
		t.Errorf("costUSD = %v, want 0.75", sess.costUSD)
	}
	if len(sess.history) != 4 {
		t.Errorf("history length = %d, want 4", len(sess.history))
	}
	if sess.history[0].role != "user" || sess.history[1].role != "assistant" {
		t.Errorf("history roles wrong: %+v", sess.history[:2])
	}
}

func TestCheckLimits(t *testing.T) {
	exhaustedTurns := &session{turns: 3}
	err := checkLimits(exhaustedTurns, InvokeRequest{MaxTurns: 3})
	if err == nil {
		t.Error("turn limit not enforced")
	} else if oerrors.IsRetryable(err) {
		t.Error("turn limit should be fatal, not retryable")
	}

	overBudget := &session{costUSD: 5.0}
	if err := checkLimits(overBudget, InvokeRequest{MaxBudgetUSD: 5.0}); err == nil {
		t.Error("budget limit not enforced")
	}

	// Zero limits mean unlimited.
	if err := checkLimits(&session{turns: 100, costUSD: 100}, InvokeRequest{}); err != nil {
		t.Errorf("unlimited session rejected: %v", err)
	}
}

func TestSystemText(t *testing.T) {
	got := systemText(InvokeRequest{SystemPrompt: "be brief", WorkingDir: "/repo"})
	want := "be brief\n\nWorking directory: /repo"
	if got != want {
		t.Errorf("systemText = %q, want %q", got, want)
	}
	if systemText(InvokeRequest{}) != "" {
		t.Error("empty request should produce empty system text")
	}
}

func TestErrorClassification(t *testing.T) {
	retryable := []string{
		"429 too many requests",
		"rate limit exceeded",
		"502 bad gateway",
		"service unavailable",
		"model overloaded",
	}
	for _, msg := range retryable {
		if !isRetryableError(errors.New(msg)) {
			t.Errorf("%q should be retryable", msg)
		}
	}

	fatal := []string{
		"invalid api key",
		"400 bad request",
	}
	for _, msg := range fatal {
		if isRetryableError(errors.New(msg)) {
			t.Errorf("%q should not be retryable", msg)
		}
	}

	if !isBillingError(errors.New("insufficient credits")) {
		t.Error("billing error not recognized")
	}
	if isBillingError(errors.New("rate limit")) {
		t.Error("rate limit misread as billing")
	}
	if isRetryableError(nil) || isBillingError(nil) {
		t.Error("nil error classified")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	b := sdkInitBackoff
	for i := 0; i < 20; i++ {
		b = nextBackoff(b)
	}
	if b != sdkMaxBackoff {
		t.Errorf("backoff = %v, want cap %v", b, sdkMaxBackoff)
	}
}

func TestTokenCost(t *testing.T) {
	got := tokenCost(1_000_000, 500_000, 3.0, 15.0)
	if got != 10.5 {
		t.Errorf("tokenCost = %v, want 10.5", got)
	}
}

func TestMockInvokerDefaultsAndEvents(t *testing.T) {
	m := &MockInvoker{}

	var events []EventType
	res, err := m.Invoke(context.Background(), InvokeRequest{
		Prompt:  "task",
		OnEvent: func(e Event) { events = append(events, e.Type) },
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.SessionID == "" {
		t.Error("no session id assigned")
	}
	if len(events) != 2 || events[0] != EventInit || events[1] != EventResult {
		t.Errorf("event order = %v, want [init result]", events)
	}
	if m.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", m.CallCount())
	}
	if m.Calls()[0].Prompt != "task" {
		t.Errorf("recorded prompt = %q", m.Calls()[0].Prompt)
	}
}

func TestMockInvokerOverride(t *testing.T) {
	boom := oerrors.TransientAgent("overloaded")
	m := &MockInvoker{
		InvokeFunc: func(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
			return nil, boom
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := m.Invoke(ctx, InvokeRequest{}); err != boom {
		t.Errorf("err = %v, want scripted error", err)
	}
}
