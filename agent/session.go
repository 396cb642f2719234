package agent

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vinayprograms/speckit/errors"
)

// message is one utterance in a session's history, provider agnostic.
type message struct {
	role    string // "user" or "assistant"
	content string
}

// session accumulates the history and spend of one conversation.
type session struct {
	id      string
	history []message
	costUSD float64
	turns   int
}

// sessionStore keeps live sessions in memory so follow-up invocations can
// continue with full context. Sessions do not survive process restart; a
// resume against an unknown ID silently starts fresh.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// resume returns the session for id, or a fresh one when id is empty or
// unknown. The caller holds the returned session exclusively until release.
func (s *sessionStore) resume(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
	}
	sess := &session{id: uuid.NewString()}
	s.sessions[sess.id] = sess
	return sess
}

// checkLimits rejects an invocation whose session has already consumed its
// turn or budget allowance. Both are fatal: spending more will not help.
func checkLimits(sess *session, req InvokeRequest) error {
	if req.MaxTurns > 0 && sess.turns >= req.MaxTurns {
		return errors.FatalAgent("session exceeded max turns")
	}
	if req.MaxBudgetUSD > 0 && sess.costUSD >= req.MaxBudgetUSD {
		return errors.FatalAgent("session exceeded budget")
	}
	return nil
}

// record appends a completed exchange and its cost to the session.
func (sess *session) record(prompt, reply string, cost float64) {
	sess.history = append(sess.history,
		message{role: "user", content: prompt},
		message{role: "assistant", content: reply},
	)
	sess.costUSD += cost
	sess.turns++
}

// systemText combines the configured system prompt with the working
// directory so the model knows which tree the task concerns.
func systemText(req InvokeRequest) string {
	var parts []string
	if req.SystemPrompt != "" {
		parts = append(parts, req.SystemPrompt)
	}
	if req.WorkingDir != "" {
		parts = append(parts, "Working directory: "+req.WorkingDir)
	}
	return strings.Join(parts, "\n\n")
}
