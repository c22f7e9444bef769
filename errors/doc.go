// Package errors provides the structured error type used across the service
// runtime. Errors carry a machine-readable code, a human-readable message,
// optional details, and an optional underlying cause.
package errors
