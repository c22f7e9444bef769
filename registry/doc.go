// Package registry provides class-style service registration on top of the
// di container: declared dependencies, singleton/transient lifecycle,
// health aggregation, initialization and disposal orchestration, and an
// optional method-interception proxy.
//
// Services satisfy the Service contract (name and health accessors) and may
// additionally expose an explicit method table via Invoker, which is what
// the interception proxy and the decorator framework operate on.
package registry
