package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an OrchestratorError, it wraps it with the new message.
// Otherwise, it creates a new Internal error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	// If it's already an OrchestratorError, preserve its properties
	var oerr *Error
	if errors.As(err, &oerr) {
		wrapped := &Error{
			code:      oerr.code,
			category:  oerr.category,
			message:   message,
			cause:     err,
			metadata:  oerr.Metadata(),
			retryable: oerr.retryable,
			specKey:   oerr.specKey,
			runID:     oerr.runID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Check for context errors
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	// Default to internal error for unknown errors
	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsOrchestratorError attempts to extract an OrchestratorError from an error
// chain. Returns nil if none is found.
func AsOrchestratorError(err error) OrchestratorError {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
func IsRetryable(err error) bool {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.Retryable()
	}
	// Default to not retryable for plain errors
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not an OrchestratorError.
func Code(err error) ErrorCode {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not an OrchestratorError.
func Category(err error) ErrorCategory {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.category
	}
	return ""
}

// GetMetadata extracts metadata from an error.
// Returns nil if err is not an OrchestratorError.
func GetMetadata(err error) map[string]string {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr.Metadata()
	}
	return nil
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Join combines multiple errors into a single error.
// If all errors are nil, returns nil.
// Uses errors.Join from the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Collect gathers multiple errors into a slice, filtering nils.
func Collect(errs ...error) []error {
	var result []error
	for _, err := range errs {
		if err != nil {
			result = append(result, err)
		}
	}
	return result
}
