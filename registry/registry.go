package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vaultpass/servicekit/di"
	apperrors "github.com/vaultpass/servicekit/errors"
	"github.com/vaultpass/servicekit/logger"
)

// Lifecycle determines how instances are shared.
type Lifecycle string

const (
	// LifecycleSingleton shares one instance for the registry's lifetime.
	LifecycleSingleton Lifecycle = "singleton"
	// LifecycleTransient constructs a fresh instance per request.
	LifecycleTransient Lifecycle = "transient"
)

// Constructor builds a service instance from its resolved dependencies,
// passed positionally in declared order.
type Constructor func(deps ...any) (any, error)

// RegisterOptions configures a service registration.
type RegisterOptions struct {
	// Lifecycle defaults to LifecycleSingleton.
	Lifecycle Lifecycle
	// Dependencies are container names resolved positionally for the
	// constructor.
	Dependencies []string
	// Metadata is free-form registration metadata.
	Metadata map[string]any
}

// Registration describes one registered service.
type Registration struct {
	Name         string
	Lifecycle    Lifecycle
	Dependencies []string
	Metadata     map[string]any
	RegisteredAt time.Time

	constructor Constructor

	mu       sync.Mutex
	instance Service
}

// InstanceOption configures GetInstance.
type InstanceOption func(*instanceOptions)

type instanceOptions struct {
	withProxy bool
}

// WithProxy wraps the instance in the method-interception proxy, which logs
// entry/exit and timing for every declared method without altering the
// service's call surface.
func WithProxy() InstanceOption {
	return func(o *instanceOptions) { o.withProxy = true }
}

// ServiceRegistry adds lifecycle, health aggregation, and interception on
// top of a di.Container.
type ServiceRegistry struct {
	log *logger.Logger

	mu            sync.RWMutex
	registrations map[string]*Registration
	order         []string
	healthCache   map[string]Health
	healthTTL     time.Duration
	initialized   bool
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		log:           logger.Get("registry"),
		registrations: make(map[string]*Registration),
		healthCache:   make(map[string]Health),
	}
}

// SetHealthCacheTTL enables serving health reads from the cache for ttl
// after a check. Zero (the default) checks on every read. A cached
// not_instantiated result is never served, so instantiation shows up
// immediately.
func (r *ServiceRegistry) SetHealthCacheTTL(ttl time.Duration) {
	r.mu.Lock()
	r.healthTTL = ttl
	r.mu.Unlock()
}

// Register records a service under name. Lifecycle defaults to singleton.
// It fails if the name is empty or already registered, or the constructor is
// nil.
func (r *ServiceRegistry) Register(name string, constructor Constructor, opts RegisterOptions) error {
	if name == "" {
		return apperrors.RegistrationFailed(name, "name must not be empty")
	}
	if constructor == nil {
		return apperrors.RegistrationFailed(name, "constructor must not be nil")
	}
	if opts.Lifecycle == "" {
		opts.Lifecycle = LifecycleSingleton
	}
	if opts.Lifecycle != LifecycleSingleton && opts.Lifecycle != LifecycleTransient {
		return apperrors.RegistrationFailed(name, fmt.Sprintf("unknown lifecycle %q", opts.Lifecycle))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[name]; exists {
		return apperrors.RegistrationFailed(name, "name already registered")
	}

	r.registrations[name] = &Registration{
		Name:         name,
		Lifecycle:    opts.Lifecycle,
		Dependencies: append([]string{}, opts.Dependencies...),
		Metadata:     opts.Metadata,
		RegisteredAt: time.Now(),
		constructor:  constructor,
	}
	r.order = append(r.order, name)

	r.log.Debug("Service registered", logger.Fields(
		logger.FieldService, name,
		"lifecycle", string(opts.Lifecycle),
		"dependencies", opts.Dependencies,
	))
	return nil
}

// GetInstance returns the service registered under name, constructing it
// with dependencies resolved through container if needed. Singleton
// instances are memoized; transient instances are constructed per call.
func (r *ServiceRegistry) GetInstance(name string, container *di.Container, opts ...InstanceOption) (Service, error) {
	var o instanceOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.RLock()
	reg, ok := r.registrations[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotRegistered(name)
	}

	var (
		instance Service
		err      error
	)
	if reg.Lifecycle == LifecycleSingleton {
		instance, err = r.singletonInstance(reg, container)
	} else {
		instance, err = r.construct(reg, container)
	}
	if err != nil {
		return nil, err
	}

	if o.withProxy {
		return r.wrapInProxy(instance)
	}
	return instance, nil
}

func (r *ServiceRegistry) singletonInstance(reg *Registration, container *di.Container) (Service, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.instance != nil {
		return reg.instance, nil
	}
	instance, err := r.construct(reg, container)
	if err != nil {
		return nil, err
	}
	reg.instance = instance
	return instance, nil
}

// construct resolves the declared dependencies positionally, invokes the
// constructor, and validates the mandatory service contract.
func (r *ServiceRegistry) construct(reg *Registration, container *di.Container) (Service, error) {
	deps := make([]any, len(reg.Dependencies))
	for i, depName := range reg.Dependencies {
		dep, err := container.Resolve(depName)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency %q of %q: %w", depName, reg.Name, err)
		}
		deps[i] = dep
	}

	raw, err := reg.constructor(deps...)
	if err != nil {
		return nil, fmt.Errorf("constructing %q: %w", reg.Name, err)
	}

	instance, ok := raw.(Service)
	if !ok {
		return nil, apperrors.ContractViolation(reg.Name, fmt.Sprintf("%T does not expose ServiceName/HealthStatus", raw))
	}
	if instance.ServiceName() == "" {
		return nil, apperrors.ContractViolation(reg.Name, "ServiceName() returned an empty name")
	}

	r.log.Debug("Service constructed", logger.Fields(
		logger.FieldService, reg.Name,
		"lifecycle", string(reg.Lifecycle),
	))
	return instance, nil
}

func (r *ServiceRegistry) wrapInProxy(instance Service) (Service, error) {
	invoker, ok := instance.(Invoker)
	if !ok {
		return nil, apperrors.ContractViolation(instance.ServiceName(), "interception requires an explicit method table (Invoker)")
	}
	return NewProxy(invoker), nil
}

// GetServiceHealth reports the health of one service. Services without an
// instantiated instance report not_instantiated; a panicking health accessor
// reports unhealthy with the failure message. The last result is cached with
// its timestamp, and served back for the configured health cache TTL.
func (r *ServiceRegistry) GetServiceHealth(name string) Health {
	r.mu.RLock()
	reg, ok := r.registrations[name]
	ttl := r.healthTTL
	r.mu.RUnlock()
	if !ok {
		return Health{Service: name, Status: StatusUnhealthy, Message: "not registered", CheckedAt: time.Now()}
	}

	reg.mu.Lock()
	instance := reg.instance
	reg.mu.Unlock()

	var health Health
	if instance == nil {
		health = Health{Service: name, Status: StatusNotInstantiated, CheckedAt: time.Now()}
	} else {
		if ttl > 0 {
			r.mu.RLock()
			cached, hit := r.healthCache[name]
			r.mu.RUnlock()
			if hit && cached.Status != StatusNotInstantiated && time.Since(cached.CheckedAt) < ttl {
				return cached
			}
		}
		health = checkHealth(name, instance)
	}

	r.mu.Lock()
	r.healthCache[name] = health
	r.mu.Unlock()
	return health
}

// GetAllServiceHealth reports health for every registered service.
func (r *ServiceRegistry) GetAllServiceHealth() map[string]Health {
	r.mu.RLock()
	names := append([]string{}, r.order...)
	r.mu.RUnlock()

	out := make(map[string]Health, len(names))
	for _, name := range names {
		out[name] = r.GetServiceHealth(name)
	}
	return out
}

// LastKnownHealth returns the cached result of the last health check for
// name, if any.
func (r *ServiceRegistry) LastKnownHealth(name string) (Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.healthCache[name]
	return h, ok
}

// checkHealth invokes the health accessor, converting panics into an
// unhealthy report.
func checkHealth(name string, instance Service) (health Health) {
	defer func() {
		if rec := recover(); rec != nil {
			health = Health{
				Service:   name,
				Status:    StatusUnhealthy,
				Message:   fmt.Sprintf("health check panic: %v", rec),
				CheckedAt: time.Now(),
			}
		}
	}()

	health = instance.HealthStatus()
	if health.Service == "" {
		health.Service = name
	}
	if health.CheckedAt.IsZero() {
		health.CheckedAt = time.Now()
	}
	return health
}

// InitializeServices resolves every registered service in registration
// order, runs its optional Initialize hook, and collects a per-name result
// map. A single service's failure is recorded but does not abort the
// initialization of the others.
func (r *ServiceRegistry) InitializeServices(ctx context.Context, container *di.Container) map[string]error {
	r.mu.RLock()
	names := append([]string{}, r.order...)
	r.mu.RUnlock()

	results := make(map[string]error, len(names))
	for _, name := range names {
		instance, err := r.GetInstance(name, container)
		if err != nil {
			results[name] = err
			r.log.Error("Service initialization failed", logger.Fields(
				logger.FieldService, name,
				logger.FieldError, err.Error(),
			))
			continue
		}

		if init, ok := instance.(Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				results[name] = apperrors.New(apperrors.ErrCodeInitializeFailed, err.Error()).WithCause(err)
				r.log.Error("Service initialize hook failed", logger.Fields(
					logger.FieldService, name,
					logger.FieldError, err.Error(),
				))
				continue
			}
		}
		results[name] = nil
		r.log.Info("Service initialized", logger.Fields(logger.FieldService, name))
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return results
}

// Initialized reports whether InitializeServices has completed.
func (r *ServiceRegistry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Registrations returns the registered services in registration order.
func (r *ServiceRegistry) Registrations() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.registrations[name])
	}
	return out
}

// Dispose runs the Dispose hook of every instantiated service, logging and
// continuing past per-service errors, then clears all registry state.
func (r *ServiceRegistry) Dispose() {
	r.mu.Lock()
	names := append([]string{}, r.order...)
	regs := r.registrations
	r.mu.Unlock()

	for _, name := range names {
		reg := regs[name]
		reg.mu.Lock()
		instance := reg.instance
		reg.mu.Unlock()
		if instance == nil {
			continue
		}

		if disp, ok := instance.(Disposer); ok {
			if err := disp.Dispose(); err != nil {
				r.log.Error("Service dispose failed", logger.Fields(
					logger.FieldService, name,
					logger.FieldError, err.Error(),
				))
			}
		}
	}

	r.mu.Lock()
	r.registrations = make(map[string]*Registration)
	r.order = nil
	r.healthCache = make(map[string]Health)
	r.initialized = false
	r.mu.Unlock()

	r.log.Debug("Registry disposed")
}
