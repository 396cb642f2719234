package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: rate limits, gateway errors, connection resets.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid spec input, unresolved dependencies, budget exceeded.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates contention on a shared resource.
	// Examples: manifest lock held past its staleness window.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	// Examples: corrupted state, recovered panics.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the orchestrator's failure scenarios.
const (
	// Agent invocation errors
	ErrCodeTransientAgent ErrorCode = "TRANSIENT_AGENT" // Rate limit, gateway error, timeout; retry may succeed
	ErrCodeFatalAgent     ErrorCode = "FATAL_AGENT"     // Budget/turn limit exceeded or misconfiguration; never retried
	ErrCodeFalseSuccess   ErrorCode = "FALSE_SUCCESS"   // A reported success masking an upstream error body

	// Verification errors
	ErrCodeVerification ErrorCode = "VERIFICATION_FAILED" // Build/type-check/test commands failed

	// Scheduling errors
	ErrCodeDependencyCycle ErrorCode = "DEPENDENCY_CYCLE"      // Spec dependency graph contains a cycle
	ErrCodeUnresolvedDep   ErrorCode = "UNRESOLVED_DEPENDENCY" // Declared dependency names no spec in the batch

	// Manifest errors
	ErrCodeLockTimeout    ErrorCode = "LOCK_TIMEOUT"    // Manifest lock not acquired within bounded attempts
	ErrCodeManifestCorrupt ErrorCode = "MANIFEST_CORRUPT" // Manifest file unparsable (absorbed by the store layer)

	// General errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed spec or options
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // Spec file or entry does not exist
	ErrCodeTimeout      ErrorCode = "TIMEOUT"       // Operation timed out
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Operation was canceled
	ErrCodeInternal     ErrorCode = "INTERNAL"      // Unexpected internal error
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTransientAgent, ErrCodeTimeout:
		return CategoryTransient

	case ErrCodeFatalAgent, ErrCodeFalseSuccess, ErrCodeVerification,
		ErrCodeDependencyCycle, ErrCodeUnresolvedDep,
		ErrCodeInvalidInput, ErrCodeNotFound, ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeLockTimeout:
		return CategoryResource

	case ErrCodeManifestCorrupt, ErrCodeInternal:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTransientAgent:  "transient agent failure",
	ErrCodeFatalAgent:      "fatal agent failure",
	ErrCodeFalseSuccess:    "agent success masked an upstream error",
	ErrCodeVerification:    "verification commands failed",
	ErrCodeDependencyCycle: "dependency cycle detected",
	ErrCodeUnresolvedDep:   "unresolved dependency",
	ErrCodeLockTimeout:     "manifest lock acquisition timed out",
	ErrCodeManifestCorrupt: "manifest file is corrupt",
	ErrCodeInvalidInput:    "invalid input provided",
	ErrCodeNotFound:        "resource not found",
	ErrCodeTimeout:         "operation timed out",
	ErrCodeCanceled:        "operation canceled",
	ErrCodeInternal:        "internal error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
