package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrchestratorError is the interface for all structured errors in speckit.
// It extends the standard error interface with the context the scheduler and
// executor need for retry and reporting decisions.
type OrchestratorError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// Metadata returns additional context as key-value pairs.
	Metadata() map[string]string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of OrchestratorError.
type Error struct {
	code      ErrorCode
	category  ErrorCategory
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool // nil means use default based on category
	timestamp time.Time
	specKey   string // related spec identity, if applicable
	runID     string // related run, if applicable
}

// Ensure Error implements OrchestratorError and json.Marshaler/Unmarshaler.
var (
	_ OrchestratorError = (*Error)(nil)
	_ json.Marshaler    = (*Error)(nil)
	_ json.Unmarshaler  = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns the error metadata.
func (e *Error) Metadata() map[string]string {
	if e.metadata == nil {
		return make(map[string]string)
	}
	// Return a copy to prevent modification
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// SpecKey returns the related spec identity key, if set.
func (e *Error) SpecKey() string {
	return e.specKey
}

// RunID returns the related run ID, if set.
func (e *Error) RunID() string {
	return e.runID
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code      ErrorCode         `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Cause     string            `json:"cause,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Retryable bool              `json:"retryable"`
	Timestamp string            `json:"timestamp,omitempty"`
	SpecKey   string            `json:"spec_key,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:      e.code,
		Category:  e.category,
		Message:   e.message,
		Metadata:  e.metadata,
		Retryable: e.Retryable(),
		SpecKey:   e.specKey,
		RunID:     e.runID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.metadata = j.Metadata
	e.specKey = j.SpecKey
	e.runID = j.RunID
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithSpecKey sets the related spec identity key.
func WithSpecKey(key string) Option {
	return func(e *Error) {
		e.specKey = key
	}
}

// WithRunID sets the related run ID.
func WithRunID(id string) Option {
	return func(e *Error) {
		e.runID = id
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// TransientAgent creates a retryable agent invocation error.
func TransientAgent(message string, opts ...Option) *Error {
	return New(ErrCodeTransientAgent, message, opts...)
}

// FatalAgent creates a non-retryable agent invocation error.
func FatalAgent(message string, opts ...Option) *Error {
	return New(ErrCodeFatalAgent, message, opts...)
}

// FalseSuccess creates an error for a success that masked an upstream failure.
func FalseSuccess(specKey string, opts ...Option) *Error {
	opts = append([]Option{WithSpecKey(specKey)}, opts...)
	return New(ErrCodeFalseSuccess,
		fmt.Sprintf("spec %s reported success but the result carries an error signature", specKey), opts...)
}

// VerificationFailed creates an error carrying collected verifier output.
func VerificationFailed(message string, opts ...Option) *Error {
	return New(ErrCodeVerification, message, opts...)
}

// DependencyCycle creates an error naming the exact cycle path.
func DependencyCycle(path []string, opts ...Option) *Error {
	opts = append([]Option{WithMetadata("cycle", strings.Join(path, " -> "))}, opts...)
	return New(ErrCodeDependencyCycle,
		fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")), opts...)
}

// UnresolvedDependency creates an error listing every unresolved dependency.
func UnresolvedDependency(message string, opts ...Option) *Error {
	return New(ErrCodeUnresolvedDep, message, opts...)
}

// LockTimeout creates a lock acquisition timeout error.
func LockTimeout(message string, opts ...Option) *Error {
	return New(ErrCodeLockTimeout, message, opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// NotFound creates a not found error.
func NotFound(message string, opts ...Option) *Error {
	return New(ErrCodeNotFound, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}
