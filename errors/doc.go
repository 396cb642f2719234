// Package errors provides the structured error taxonomy for speckit. It
// defines the codes and categories the orchestrator uses to decide whether a
// failure is retried, isolated to one spec, or aborts the whole batch.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (rate limits, gateway errors, timeouts)
//   - Permanent: Failures where retry will not help (invalid graph, budget exceeded, failed verification)
//   - Resource: Contention on shared resources (manifest lock timeout)
//   - Internal: Unexpected errors indicating bugs or corrupted state
//
// # Error Codes
//
// Each error has a specific code that identifies the type of failure:
//
//   - TRANSIENT_AGENT: Agent invocation hit a retryable signature
//   - FATAL_AGENT: Agent invocation failed permanently
//   - VERIFICATION_FAILED: Build/type-check/test commands failed
//   - DEPENDENCY_CYCLE: The spec graph contains a cycle
//   - UNRESOLVED_DEPENDENCY: A declared dependency names no spec in the batch
//   - LOCK_TIMEOUT: The manifest lock could not be acquired
//   - And more...
//
// # Usage
//
// Create a new error:
//
//	err := errors.TransientAgent("rate limited by upstream")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "invoking agent for auth-spec")
//
// Check if an error is retryable:
//
//	if errors.IsRetryable(err) {
//	    // backoff and retry
//	}
//
// # JSON Serialization
//
// All errors support JSON serialization so they can be embedded in persisted
// result bundles:
//
//	data, err := json.Marshal(oerr)
package errors
