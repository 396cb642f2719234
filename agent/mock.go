package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockInvoker is a test double. Set InvokeFunc to script behavior; the
// default returns a canned success. Calls are recorded for assertions.
type MockInvoker struct {
	mu    sync.Mutex
	calls []InvokeRequest

	// InvokeFunc overrides the default behavior when non-nil.
	InvokeFunc func(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}

// Invoke implements the Invoker interface.
func (m *MockInvoker) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, req)
	}

	sessionID := req.ResumeSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	req.emit(Event{Type: EventInit, SessionID: sessionID})
	req.emit(Event{Type: EventResult, SessionID: sessionID, Message: "done", CostUSD: 0.01})

	return &InvokeResult{
		ResultText: "done",
		SessionID:  sessionID,
		CostUSD:    0.01,
		NumTurns:   1,
	}, nil
}

// Calls returns a copy of every request seen so far.
func (m *MockInvoker) Calls() []InvokeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InvokeRequest{}, m.calls...)
}

// CallCount returns how many times Invoke has been called.
func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
