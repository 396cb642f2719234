package executor

import (
	"strings"

	"github.com/vinayprograms/speckit/errors"
)

// transientSignatures mark an agent failure as worth retrying. Matching is
// case-insensitive substring search over the error text.
var transientSignatures = []string{
	"rate limit",
	"429",
	"502",
	"503",
	"timeout",
	"connection reset",
	"connection refused",
	"overloaded",
}

// IsTransientFailure reports whether an agent error should be retried.
// Typed transient errors are honored directly; untyped errors fall back to
// signature matching on the message.
func IsTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Code(err) == errors.ErrCodeTransientAgent {
		return true
	}
	if oerr := errors.AsOrchestratorError(err); oerr != nil {
		// A typed error already carries its own verdict.
		return oerr.Retryable()
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// falseSuccessSignatures are error texts an upstream integration has been
// seen returning as though they were legitimate completions.
var falseSuccessSignatures = []string{
	"api error",
	"internal server error",
	"request failed",
	"rate limit",
	"overloaded",
	"unauthorized",
	"429",
	"500",
	"502",
	"503",
}

// shortResultLimit is the length under which a signature anywhere in the
// text condemns it. Longer results legitimately discuss error handling.
const shortResultLimit = 200

// nearEmptyLimit is the length under which a zero-cost result cannot be
// real work.
const nearEmptyLimit = 20

// IsFalseSuccess inspects a reported success for masked upstream errors.
func IsFalseSuccess(resultText string, costUSD float64) bool {
	trimmed := strings.TrimSpace(resultText)
	lower := strings.ToLower(trimmed)

	if len(trimmed) < nearEmptyLimit && costUSD == 0 {
		return true
	}
	for _, sig := range falseSuccessSignatures {
		if strings.HasPrefix(lower, sig) {
			return true
		}
	}
	if len(trimmed) < shortResultLimit {
		for _, sig := range falseSuccessSignatures {
			if strings.Contains(lower, sig) {
				return true
			}
		}
	}
	return false
}
