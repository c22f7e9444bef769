// Package decorator provides composable cross-cutting wrappers for services
// exposing an explicit method table (registry.Invoker): logging with
// sensitive-field redaction, TTL/LRU caching with coarse write invalidation,
// percentile-based performance monitoring, and fault-tolerance wrappers
// built on the resilience package. The Factory composes ordered chains per
// service and aggregates statistics across a chain.
//
// Decorators only observe: a business error raised by the wrapped service
// passes through every decorator unchanged.
package decorator
