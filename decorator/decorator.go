package decorator

import (
	"path"

	"github.com/vaultpass/servicekit/registry"
)

// Type identifies a decorator kind within a chain.
type Type string

const (
	TypeLogging        Type = "logging"
	TypeCaching        Type = "caching"
	TypePerformance    Type = "performance"
	TypeRetry          Type = "retry"
	TypeCircuitBreaker Type = "circuit_breaker"
)

// Decorator is an Invoker that wraps another Invoker and intercepts calls to
// a subset of its methods without changing the target's contract.
type Decorator interface {
	registry.Invoker

	// Kind returns the decorator type.
	Kind() Type

	// Target returns the wrapped Invoker.
	Target() registry.Invoker
}

// matcher decides per method name whether a decorator intercepts the call.
// Patterns use glob semantics ("get*", "*", "find*ByUser"). An empty include
// set matches every method; exclude wins over include.
type matcher struct {
	include []string
	exclude []string
}

func newMatcher(include, exclude []string) matcher {
	return matcher{include: include, exclude: exclude}
}

func (m matcher) intercepts(method string) bool {
	for _, pattern := range m.exclude {
		if globMatch(pattern, method) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, pattern := range m.include {
		if globMatch(pattern, method) {
			return true
		}
	}
	return false
}

func globMatch(pattern, method string) bool {
	ok, err := path.Match(pattern, method)
	return err == nil && ok
}

// forward exposes the wrapped service's identity on every decorator.
type forward struct {
	target registry.Invoker
}

func (f forward) ServiceName() string           { return f.target.ServiceName() }
func (f forward) HealthStatus() registry.Health { return f.target.HealthStatus() }
func (f forward) Methods() []string             { return f.target.Methods() }
func (f forward) Target() registry.Invoker      { return f.target }
