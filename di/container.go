package di

import (
	"sync"
	"time"

	apperrors "github.com/vaultpass/servicekit/errors"
	"github.com/vaultpass/servicekit/logger"
)

// Factory constructs an instance. The Resolver it receives carries the
// resolution stack of the current Resolve call, so nested resolutions keep
// cycle detection intact.
type Factory func(r Resolver) (any, error)

// Resolver resolves registered names. Inside a factory, always resolve
// dependencies through the provided Resolver, not the Container directly.
type Resolver interface {
	Resolve(name string) (any, error)
}

// Disposer is implemented by instances that need teardown on container
// disposal.
type Disposer interface {
	Dispose() error
}

// RegistrationInfo describes a registration for introspection.
type RegistrationInfo struct {
	Name         string
	Singleton    bool
	Instantiated bool
	RegisteredAt time.Time
}

// registration holds one named factory and its memoized singleton slot.
type registration struct {
	name         string
	factory      Factory
	singleton    bool
	registeredAt time.Time

	mu          sync.Mutex
	instance    any
	constructed bool
}

// Container is the runtime's dependency injection container. All maps are
// mutex-guarded; independent names may be resolved concurrently.
type Container struct {
	mu            sync.RWMutex
	registrations map[string]*registration
	log           *logger.Logger
}

// Option configures a registration.
type Option func(*registration)

// Singleton memoizes the instance: the factory runs at most once and every
// subsequent resolution returns the same instance.
func Singleton() Option {
	return func(r *registration) { r.singleton = true }
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		registrations: make(map[string]*registration),
		log:           logger.Get("container"),
	}
}

// Register stores a factory under name. It fails if the name is empty or
// already taken, or the factory is nil. The factory is not invoked.
func (c *Container) Register(name string, factory Factory, opts ...Option) error {
	if name == "" {
		return apperrors.RegistrationFailed(name, "name must not be empty")
	}
	if factory == nil {
		return apperrors.RegistrationFailed(name, "factory must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[name]; exists {
		return apperrors.RegistrationFailed(name, "name already registered")
	}

	reg := &registration{
		name:         name,
		factory:      factory,
		registeredAt: time.Now(),
	}
	for _, opt := range opts {
		opt(reg)
	}
	c.registrations[name] = reg

	c.log.Debug("Factory registered", logger.Fields(
		"name", name,
		"singleton", reg.singleton,
	))
	return nil
}

// Resolve returns the instance registered under name, constructing it if
// needed. A fresh resolution stack is created for this call tree; re-entering
// a name already under construction fails with a circular dependency error
// whose message enumerates the full path.
func (c *Container) Resolve(name string) (any, error) {
	res := &resolution{container: c}
	return res.Resolve(name)
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[name]
	return ok
}

// Registrations returns introspection info for every registration.
func (c *Container) Registrations() []RegistrationInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]RegistrationInfo, 0, len(c.registrations))
	for _, reg := range c.registrations {
		reg.mu.Lock()
		infos = append(infos, RegistrationInfo{
			Name:         reg.name,
			Singleton:    reg.singleton,
			Instantiated: reg.constructed,
			RegisteredAt: reg.registeredAt,
		})
		reg.mu.Unlock()
	}
	return infos
}

// CreateScope returns a fresh, independent container sharing no state with
// the receiver. Used for test isolation.
func (c *Container) CreateScope() *Container {
	return NewContainer()
}

// Dispose tears down every memoized singleton that exposes a dispose hook,
// logging per-instance errors so one failure does not block the others, then
// clears all registrations.
func (c *Container) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, reg := range c.registrations {
		reg.mu.Lock()
		instance := reg.instance
		constructed := reg.constructed
		reg.mu.Unlock()

		if !constructed {
			continue
		}
		if err := disposeInstance(instance); err != nil {
			c.log.Error("Instance dispose failed", logger.Fields(
				"name", name,
				"error", err.Error(),
			))
		}
	}

	c.registrations = make(map[string]*registration)
	c.log.Debug("Container disposed")
}

func disposeInstance(instance any) error {
	switch v := instance.(type) {
	case Disposer:
		return v.Dispose()
	case interface{ Close() error }:
		return v.Close()
	default:
		return nil
	}
}

// resolution carries the ordered set of names under construction for a
// single Resolve call tree. It is discarded when that call returns, so cycle
// detection stays correct under concurrent resolutions of independent names.
//
// Detection is per-call-tree only: a cycle entered simultaneously from two
// ends (goroutine A resolving x->y while B resolves y->x) blocks on the two
// per-registration locks instead of reporting CircularDependency, since each
// stack sees only its own path. Cycles are registration-time programming
// errors; resolve every registered name once from one goroutine (as
// InitializeServices does) to surface them deterministically.
type resolution struct {
	container *Container
	stack     []string
}

// Resolve implements Resolver for nested factory calls.
func (r *resolution) Resolve(name string) (any, error) {
	c := r.container

	c.mu.RLock()
	reg, ok := c.registrations[name]
	c.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotRegistered(name)
	}

	for _, inProgress := range r.stack {
		if inProgress == name {
			path := append(append([]string{}, r.stack...), name)
			return nil, apperrors.CircularDependency(path)
		}
	}

	if reg.singleton {
		return r.resolveSingleton(reg)
	}
	return r.construct(reg)
}

// resolveSingleton returns the memoized instance or constructs it exactly
// once under the registration lock.
func (r *resolution) resolveSingleton(reg *registration) (any, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.constructed {
		return reg.instance, nil
	}

	instance, err := r.construct(reg)
	if err != nil {
		return nil, err
	}

	reg.instance = instance
	reg.constructed = true
	return instance, nil
}

// construct invokes the factory with this resolution's stack extended by the
// registration's name. The stack entry is removed before any factory error
// propagates, so a failed construction leaves no poisoned state.
func (r *resolution) construct(reg *registration) (any, error) {
	r.stack = append(r.stack, reg.name)
	instance, err := reg.factory(r)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}
	return instance, nil
}
