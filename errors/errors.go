package errors

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError is the unified error type for the service runtime.
type RuntimeError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *RuntimeError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *RuntimeError) WithCause(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *RuntimeError) WithDetail(key string, value any) *RuntimeError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a RuntimeError with the given code and message.
func New(code ErrorCode, message string) *RuntimeError {
	return &RuntimeError{Code: code, Message: message}
}

// Newf creates a RuntimeError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RegistrationFailed creates an error for an invalid registration.
func RegistrationFailed(name, reason string) *RuntimeError {
	return Newf(ErrCodeRegistrationFailed, "cannot register %q: %s", name, reason).
		WithDetail("name", name)
}

// NotRegistered creates an error for an unknown name.
func NotRegistered(name string) *RuntimeError {
	return Newf(ErrCodeNotRegistered, "not registered: %s", name).
		WithDetail("name", name)
}

// CircularDependency creates an error describing the full resolution cycle.
// The path includes the re-entered name at both ends, e.g. "x -> y -> x".
func CircularDependency(path []string) *RuntimeError {
	joined := strings.Join(path, " -> ")
	return Newf(ErrCodeCircularDependency, "circular dependency detected: %s", joined).
		WithDetail("path", joined)
}

// ContractViolation creates an error for an instance that does not satisfy
// the mandatory service contract.
func ContractViolation(name, reason string) *RuntimeError {
	return Newf(ErrCodeContractViolation, "service %q violates the service contract: %s", name, reason).
		WithDetail("name", name)
}

// ValidationFailed creates an error for input or configuration that failed
// validation.
func ValidationFailed(message string) *RuntimeError {
	return New(ErrCodeValidationFailed, message)
}

// InvalidEvent creates an error for an invalid subscription or emission.
func InvalidEvent(reason string) *RuntimeError {
	return New(ErrCodeInvalidEvent, reason)
}

// HandlerFailed wraps an error raised by an individual handler.
func HandlerFailed(event string, cause error) *RuntimeError {
	return Newf(ErrCodeHandlerFailed, "handler for %q failed", event).
		WithDetail("event", event).
		WithCause(cause)
}

// CacheFailure wraps a cache serialization or storage error.
func CacheFailure(operation string, cause error) *RuntimeError {
	return Newf(ErrCodeCacheError, "cache %s failed", operation).
		WithDetail("operation", operation).
		WithCause(cause)
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal if err is not a
// RuntimeError.
func CodeOf(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrCodeInternal
}

// IsCode returns true if err is a RuntimeError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// As attempts to extract a RuntimeError from err.
func As(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
