// Package logger provides structured logging for the service runtime, built
// on zerolog. It exposes a global logger for package-level use, per-component
// named loggers, and map-based fields for structured output.
package logger
