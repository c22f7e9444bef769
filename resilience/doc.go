// Package resilience provides the retry and circuit breaker primitives used
// by the decorator framework's fault-tolerance decorators.
package resilience
