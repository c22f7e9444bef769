package registry

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// HealthState represents the health of a service.
type HealthState string

const (
	StatusHealthy         HealthState = "healthy"
	StatusDegraded        HealthState = "degraded"
	StatusUnhealthy       HealthState = "unhealthy"
	StatusNotInstantiated HealthState = "not_instantiated"
)

// Health holds health information for a service.
type Health struct {
	Service   string      `json:"service"`
	Status    HealthState `json:"status"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Service is the mandatory capability set every registered service must
// expose. Constructed instances that lack it are rejected.
type Service interface {
	// ServiceName returns the unique service name.
	ServiceName() string

	// HealthStatus reports the service's current health.
	HealthStatus() Health
}

// Initializer is optionally implemented by services that need a startup hook.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Disposer is optionally implemented by services that need teardown.
type Disposer interface {
	Dispose() error
}

// Method is one entry in a service's explicit method table. Every
// intercepted operation goes through this uniform shape, so decorators never
// branch on call style.
type Method func(ctx context.Context, args ...any) (any, error)

// Invoker is the uniform call surface for interception. A service exposes
// its operations as an explicit method table declared at construction; the
// proxy and decorators forward through Invoke without any reflection over
// method names.
type Invoker interface {
	Service

	// Methods returns the declared method names.
	Methods() []string

	// Invoke dispatches a named method.
	Invoke(ctx context.Context, method string, args ...any) (any, error)
}

// MethodSet adapts a Service plus an explicit method table into an Invoker.
type MethodSet struct {
	service Service
	methods map[string]Method
	names   []string
}

// NewMethodSet builds an Invoker from a service and its declared methods.
func NewMethodSet(svc Service, methods map[string]Method) *MethodSet {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return &MethodSet{service: svc, methods: methods, names: names}
}

// ServiceName returns the wrapped service's name.
func (m *MethodSet) ServiceName() string { return m.service.ServiceName() }

// HealthStatus returns the wrapped service's health.
func (m *MethodSet) HealthStatus() Health { return m.service.HealthStatus() }

// Methods returns the declared method names in sorted order.
func (m *MethodSet) Methods() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Invoke dispatches a declared method.
func (m *MethodSet) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	fn, ok := m.methods[method]
	if !ok {
		return nil, fmt.Errorf("service %s has no method %q", m.ServiceName(), method)
	}
	return fn(ctx, args...)
}

// Unwrap returns the underlying service.
func (m *MethodSet) Unwrap() Service { return m.service }
