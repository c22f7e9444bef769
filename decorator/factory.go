package decorator

import (
	"fmt"
	"sync"

	apperrors "github.com/vaultpass/servicekit/errors"
	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
)

// Config declares one decorator in a service's chain. Exactly the options
// field matching Type is consulted; a nil options field means defaults.
type Config struct {
	Type           Type
	Logging        *LoggingOptions
	Caching        *CachingOptions
	Performance    *PerformanceOptions
	Retry          *RetryOptions
	CircuitBreaker *CircuitBreakerOptions
}

// Pattern names a prebuilt decorator chain for a common service profile.
type Pattern string

const (
	// PatternBasic logs calls and nothing else.
	PatternBasic Pattern = "basic"
	// PatternReadHeavy caches reads and logs calls.
	PatternReadHeavy Pattern = "read-heavy"
	// PatternWriteHeavy logs calls and measures latency.
	PatternWriteHeavy Pattern = "write-heavy"
	// PatternCritical retries, circuit-breaks, logs, and measures.
	PatternCritical Pattern = "critical"
)

// ChainStats aggregates the observable state of one service's decorator
// chain. Fields are nil when the chain has no decorator of that kind.
type ChainStats struct {
	Service        string                   `json:"service"`
	Chain          []Type                   `json:"chain"`
	Logging        *LoggingStats            `json:"logging,omitempty"`
	Caching        *CachingStats            `json:"caching,omitempty"`
	Performance    map[string]MethodMetrics `json:"performance,omitempty"`
	CircuitBreaker string                   `json:"circuit_breaker,omitempty"`
}

// Defaults seed the option structs of decorators configured without explicit
// options, typically from the runtime configuration. A Config carrying its
// own options overrides the defaults wholesale.
type Defaults struct {
	Caching     CachingOptions
	Performance PerformanceOptions
}

// Factory builds decorator chains from per-service configurations and keeps
// hold of the built chains for chain-wide operations.
type Factory struct {
	mu       sync.Mutex
	configs  map[string][]Config
	chains   map[string]registry.Invoker
	defaults Defaults
	log      *logger.Logger
}

// NewFactory returns an empty decorator factory.
func NewFactory() *Factory {
	return &Factory{
		configs: make(map[string][]Config),
		chains:  make(map[string]registry.Invoker),
		log:     logger.Get("decorator.factory"),
	}
}

// SetDefaults replaces the factory-wide default decorator options.
func (f *Factory) SetDefaults(d Defaults) {
	f.mu.Lock()
	f.defaults = d
	f.mu.Unlock()
}

// RegisterDecorators appends configs to a service's chain. Registration
// order is chain order: the last registered decorator ends up outermost.
func (f *Factory) RegisterDecorators(service string, configs ...Config) error {
	if service == "" {
		return apperrors.RegistrationFailed("decorator", "service name must not be empty")
	}
	for _, cfg := range configs {
		if !knownType(cfg.Type) {
			return apperrors.RegistrationFailed(service, fmt.Sprintf("unknown decorator type %q", cfg.Type))
		}
	}

	f.mu.Lock()
	f.configs[service] = append(f.configs[service], configs...)
	f.mu.Unlock()
	return nil
}

// CreateDecoratedService wraps target in its registered chain. Decorators
// whose construction fails are skipped with a warning so one bad config does
// not take down the whole chain. A service with no registered decorators is
// returned unwrapped.
func (f *Factory) CreateDecoratedService(target registry.Invoker) registry.Invoker {
	service := target.ServiceName()

	f.mu.Lock()
	configs := make([]Config, len(f.configs[service]))
	copy(configs, f.configs[service])
	defaults := f.defaults
	f.mu.Unlock()

	wrapped := target
	for _, cfg := range configs {
		next, err := f.build(cfg, wrapped, defaults)
		if err != nil {
			f.log.Warn("Skipping decorator", logger.Fields(
				logger.FieldService, service,
				logger.FieldDecorator, string(cfg.Type),
				logger.FieldError, err.Error(),
			))
			continue
		}
		wrapped = next
	}

	f.mu.Lock()
	f.chains[service] = wrapped
	f.mu.Unlock()

	if len(configs) > 0 {
		f.log.Debug("Decorated service created", logger.Fields(
			logger.FieldService, service,
			"chain", chainTypes(wrapped),
		))
	}
	return wrapped
}

// GetDefaultDecorators returns the config chain for a named pattern.
func (f *Factory) GetDefaultDecorators(pattern Pattern) ([]Config, error) {
	switch pattern {
	case PatternBasic:
		return []Config{{Type: TypeLogging}}, nil
	case PatternReadHeavy:
		return []Config{{Type: TypeCaching}, {Type: TypeLogging}}, nil
	case PatternWriteHeavy:
		return []Config{{Type: TypeLogging}, {Type: TypePerformance}}, nil
	case PatternCritical:
		return []Config{
			{Type: TypeRetry},
			{Type: TypeCircuitBreaker},
			{Type: TypeLogging},
			{Type: TypePerformance},
		}, nil
	default:
		return nil, apperrors.RegistrationFailed(string(pattern), "unknown decorator pattern")
	}
}

// ApplyDefaultDecorators registers a pattern's chain for the target's
// service and returns the decorated service.
func (f *Factory) ApplyDefaultDecorators(target registry.Invoker, pattern Pattern) (registry.Invoker, error) {
	configs, err := f.GetDefaultDecorators(pattern)
	if err != nil {
		return nil, err
	}
	if err := f.RegisterDecorators(target.ServiceName(), configs...); err != nil {
		return nil, err
	}
	return f.CreateDecoratedService(target), nil
}

// GetServiceDecoratorStats walks a service's chain and collects the stats of
// every decorator in it.
func (f *Factory) GetServiceDecoratorStats(service string) (ChainStats, bool) {
	f.mu.Lock()
	chain, ok := f.chains[service]
	f.mu.Unlock()
	if !ok {
		return ChainStats{}, false
	}

	stats := ChainStats{Service: service, Chain: chainTypes(chain)}
	walkChain(chain, func(d Decorator) {
		switch dec := d.(type) {
		case *Logging:
			s := dec.GetStats()
			stats.Logging = &s
		case *Caching:
			s := dec.GetStats()
			stats.Caching = &s
		case *Performance:
			stats.Performance = dec.GetMetrics()
		case *CircuitBreaker:
			stats.CircuitBreaker = dec.State().String()
		}
	})
	return stats, true
}

// ClearServiceCache clears every caching decorator in a service's chain and
// returns how many entries were dropped.
func (f *Factory) ClearServiceCache(service string) int {
	f.mu.Lock()
	chain, ok := f.chains[service]
	f.mu.Unlock()
	if !ok {
		return 0
	}

	cleared := 0
	walkChain(chain, func(d Decorator) {
		if c, ok := d.(*Caching); ok {
			cleared += c.ClearCache()
		}
	})
	return cleared
}

// ResetServiceMetrics resets every performance decorator in a service's
// chain.
func (f *Factory) ResetServiceMetrics(service string) {
	f.mu.Lock()
	chain, ok := f.chains[service]
	f.mu.Unlock()
	if !ok {
		return
	}

	walkChain(chain, func(d Decorator) {
		if p, ok := d.(*Performance); ok {
			p.ResetMetrics()
		}
	})
}

// Services lists every service with a built chain.
func (f *Factory) Services() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.chains))
	for service := range f.chains {
		out = append(out, service)
	}
	return out
}

func (f *Factory) build(cfg Config, target registry.Invoker, defaults Defaults) (Decorator, error) {
	switch cfg.Type {
	case TypeLogging:
		opts := LoggingOptions{}
		if cfg.Logging != nil {
			opts = *cfg.Logging
		}
		return NewLogging(target, opts), nil
	case TypeCaching:
		opts := defaults.Caching
		if cfg.Caching != nil {
			opts = *cfg.Caching
		}
		return NewCaching(target, opts), nil
	case TypePerformance:
		opts := defaults.Performance
		if cfg.Performance != nil {
			opts = *cfg.Performance
		}
		return NewPerformance(target, opts), nil
	case TypeRetry:
		opts := RetryOptions{}
		if cfg.Retry != nil {
			opts = *cfg.Retry
		}
		return NewRetry(target, opts), nil
	case TypeCircuitBreaker:
		opts := CircuitBreakerOptions{}
		if cfg.CircuitBreaker != nil {
			opts = *cfg.CircuitBreaker
		}
		return NewCircuitBreaker(target, opts), nil
	default:
		return nil, fmt.Errorf("unknown decorator type %q", cfg.Type)
	}
}

func knownType(t Type) bool {
	switch t {
	case TypeLogging, TypeCaching, TypePerformance, TypeRetry, TypeCircuitBreaker:
		return true
	}
	return false
}

// walkChain visits every decorator from outermost to innermost.
func walkChain(inv registry.Invoker, visit func(Decorator)) {
	for {
		d, ok := inv.(Decorator)
		if !ok {
			return
		}
		visit(d)
		inv = d.Target()
	}
}

// chainTypes lists a chain's decorator kinds from outermost to innermost.
func chainTypes(inv registry.Invoker) []Type {
	var out []Type
	walkChain(inv, func(d Decorator) { out = append(out, d.Kind()) })
	return out
}
