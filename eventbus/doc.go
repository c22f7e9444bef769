// Package eventbus provides the publish/subscribe primitive for the service
// runtime. Event names are free-form strings defined by collaborators
// (e.g. "password.created"); payloads are opaque. Handlers are isolated:
// a panic or failure in one handler never prevents the others from running.
package eventbus
