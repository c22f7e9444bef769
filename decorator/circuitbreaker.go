package decorator

import (
	"context"

	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
	"github.com/vaultpass/servicekit/resilience"
)

// CircuitBreakerOptions configures a CircuitBreaker decorator.
type CircuitBreakerOptions struct {
	Include []string
	Exclude []string
	// Breaker is the breaker policy. The Name field is filled from the
	// wrapped service when empty.
	Breaker resilience.CircuitBreakerConfig
}

// CircuitBreaker sheds calls to a service whose recent failures have tripped
// the breaker. The whole service shares one breaker so a failing dependency
// is fenced off method-wide.
type CircuitBreaker struct {
	forward
	match   matcher
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

var _ Decorator = (*CircuitBreaker)(nil)

// NewCircuitBreaker wraps target in a circuit-breaking decorator.
func NewCircuitBreaker(target registry.Invoker, opts CircuitBreakerOptions) *CircuitBreaker {
	if opts.Breaker.Name == "" {
		opts.Breaker.Name = target.ServiceName()
	}
	log := logger.Get("decorator.circuit_breaker").WithFields(logger.Fields(logger.FieldService, target.ServiceName()))
	if opts.Breaker.OnStateChange == nil {
		opts.Breaker.OnStateChange = func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed", logger.Fields(
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			))
		}
	}
	return &CircuitBreaker{
		forward: forward{target: target},
		match:   newMatcher(opts.Include, opts.Exclude),
		breaker: resilience.NewCircuitBreaker(opts.Breaker),
		log:     log,
	}
}

// Kind returns TypeCircuitBreaker.
func (d *CircuitBreaker) Kind() Type { return TypeCircuitBreaker }

// State exposes the current breaker state for diagnostics.
func (d *CircuitBreaker) State() resilience.State { return d.breaker.State() }

// Invoke runs intercepted calls through the breaker. Shed calls fail fast
// with resilience.ErrCircuitOpen.
func (d *CircuitBreaker) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if !d.match.intercepts(method) {
		return d.target.Invoke(ctx, method, args...)
	}

	var result any
	err := d.breaker.Execute(func() error {
		var callErr error
		result, callErr = d.target.Invoke(ctx, method, args...)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
