package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registration and resolution errors. These are programmer mistakes and are
// surfaced immediately as hard failures.
const (
	// ErrCodeRegistrationFailed indicates an invalid registration: empty or
	// duplicate name, or a nil factory/constructor.
	ErrCodeRegistrationFailed ErrorCode = "REGISTRATION_FAILED"
	// ErrCodeNotRegistered indicates a resolution attempt for an unknown name.
	ErrCodeNotRegistered ErrorCode = "NOT_REGISTERED"
	// ErrCodeCircularDependency indicates a resolution chain re-entered a name
	// already being constructed.
	ErrCodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	// ErrCodeContractViolation indicates a constructed instance does not satisfy
	// the mandatory service contract.
	ErrCodeContractViolation ErrorCode = "SERVICE_CONTRACT_VIOLATION"
	// ErrCodeValidationFailed indicates input or configuration failed
	// validation.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Event bus errors.
const (
	// ErrCodeInvalidEvent indicates an empty event name or a nil handler.
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"
	// ErrCodeHandlerFailed indicates an individual event handler or decorated
	// call failed. Always logged and isolated, never propagated to siblings.
	ErrCodeHandlerFailed ErrorCode = "HANDLER_FAILED"
)

// Cross-cutting runtime errors. These are swallowed with logging so one
// misbehaving consumer cannot take down the runtime.
const (
	// ErrCodeCacheError indicates a cache serialization or storage failure.
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"
	// ErrCodeDisposeFailed indicates a service or instance dispose hook failed.
	ErrCodeDisposeFailed ErrorCode = "DISPOSE_FAILED"
	// ErrCodeInitializeFailed indicates a service initialize hook failed.
	ErrCodeInitializeFailed ErrorCode = "INITIALIZE_FAILED"
	// ErrCodeInternal indicates an unexpected internal runtime error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// fatalCodes are configuration-time mistakes that must surface to the caller.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeRegistrationFailed: true,
	ErrCodeNotRegistered:      true,
	ErrCodeCircularDependency: true,
	ErrCodeContractViolation:  true,
	ErrCodeValidationFailed:   true,
	ErrCodeInvalidEvent:       true,
}

// IsFatalCode returns true if the code represents a hard failure rather than
// an isolated, logged runtime condition.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
