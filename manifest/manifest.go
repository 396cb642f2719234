package manifest

import (
	"time"
)

// Version is the manifest schema version written to disk.
const Version = 1

// Status is the lifecycle state of a spec entry.
type Status string

const (
	// StatusPending indicates the spec has been seen but never run.
	StatusPending Status = "pending"

	// StatusRunning indicates a batch has claimed the spec.
	StatusRunning Status = "running"

	// StatusPassed indicates the most recent run passed.
	StatusPassed Status = "passed"

	// StatusFailed indicates the most recent run failed.
	StatusFailed Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the status reflects a completed run.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Run is one execution attempt of a spec, immutable once appended.
type Run struct {
	// RunID uniquely identifies the attempt.
	RunID string `json:"runId"`

	// BatchID identifies the batch this run belonged to.
	BatchID string `json:"batchId,omitempty"`

	// Timestamp is when the run reached its terminal state.
	Timestamp time.Time `json:"timestamp"`

	// ResultPath points at the persisted result bundle, if any.
	ResultPath string `json:"resultPath,omitempty"`

	// Status is passed or failed.
	Status Status `json:"status"`

	// CostUSD is the agent spend reported for the run, when known.
	CostUSD float64 `json:"costUsd,omitempty"`

	// DurationSeconds is the run's duration.
	DurationSeconds float64 `json:"durationSeconds"`
}

// Entry is the durable record for one spec identity.
type Entry struct {
	// Spec is the identity key: project-relative path, or an adhoc
	// content-hash key for path-less specs.
	Spec string `json:"spec"`

	// Status is a pure function of the most recent run; pending when the
	// run history is empty, running while a batch holds the spec.
	Status Status `json:"status"`

	// Runs is the append-only, chronological attempt history.
	Runs []Run `json:"runs"`

	// Source records the spec's provenance: file, pipe, github:<ref>,
	// audit:<timestamp>, define:<timestamp>. Informational only.
	Source string `json:"source,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LastRun returns the most recent run, or nil when the history is empty.
func (e *Entry) LastRun() *Run {
	if len(e.Runs) == 0 {
		return nil
	}
	return &e.Runs[len(e.Runs)-1]
}

// HasRun reports whether the history already contains the given run ID.
func (e *Entry) HasRun(runID string) bool {
	for _, r := range e.Runs {
		if r.RunID == runID {
			return true
		}
	}
	return false
}

// Manifest is the registry of every spec ever seen, keyed by unique spec
// identity. The on-disk file is the single source of truth; in-memory values
// are transient views mutated only inside a lock-held update.
type Manifest struct {
	Version int      `json:"version"`
	Specs   []*Entry `json:"specs"`
}

// NewManifest returns an empty manifest at the current schema version.
func NewManifest() *Manifest {
	return &Manifest{Version: Version}
}

// Entry returns the entry for key, or nil if none exists.
func (m *Manifest) Entry(key string) *Entry {
	for _, e := range m.Specs {
		if e.Spec == key {
			return e
		}
	}
	return nil
}

// FindOrCreateEntry returns the existing entry for key, or appends and
// returns a new pending entry with an empty run history. The returned
// pointer aliases the manifest's own entry so callers can mutate in place.
// Calling it twice with the same key never duplicates the spec list.
func (m *Manifest) FindOrCreateEntry(key, source string) *Entry {
	if e := m.Entry(key); e != nil {
		return e
	}
	now := time.Now().UTC()
	e := &Entry{
		Spec:      key,
		Status:    StatusPending,
		Runs:      []Run{},
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.Specs = append(m.Specs, e)
	return e
}

// UpdateEntryStatus re-derives status from the most recent run and refreshes
// UpdatedAt. Only runs[last] matters: a failing rerun flips a previously
// passed entry back to failed, and an empty history is always pending.
func UpdateEntryStatus(e *Entry) {
	if last := e.LastRun(); last != nil {
		e.Status = last.Status
	} else {
		e.Status = StatusPending
	}
	e.UpdatedAt = time.Now().UTC()
}

// AppendRun appends one attempt to the entry's history and re-derives the
// entry status.
func (e *Entry) AppendRun(r Run) {
	e.Runs = append(e.Runs, r)
	UpdateEntryStatus(e)
}

// MarkRunning flags the entry as claimed by a batch.
func (e *Entry) MarkRunning() {
	e.Status = StatusRunning
	e.UpdatedAt = time.Now().UTC()
}
