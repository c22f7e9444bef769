// Package diag serves runtime diagnostics over HTTP: aggregated service
// health, event bus statistics and history, and per-service decorator chain
// stats. It is meant for an operator-facing port, not for public exposure.
package diag
