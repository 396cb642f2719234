// Package batch composes the orchestrator's pieces: it resolves which
// specs run in a batch, schedules them through dependency levels or the
// worker pool, marks the manifest before starting, and aggregates cost and
// duration across outcomes. Per-spec failures never abort a batch; an
// invalid dependency graph always does, before anything runs.
package batch
