package di

import "fmt"

// MustResolve resolves a name with type safety, panicking on error.
// Use this during wiring when a missing dependency is a programmer mistake.
//
// Example:
//
//	bus := di.MustResolve[*eventbus.Bus](container, "eventBus")
func MustResolve[T any](c *Container, name string) T {
	instance, err := c.Resolve(name)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", name, err))
	}
	result, ok := instance.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: %s is %T, expected %T", name, instance, zero))
	}
	return result
}

// Resolve resolves a name with type safety, returning an error on failure.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	instance, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: %s is %T, expected %T", name, instance, zero)
	}
	return result, nil
}

// TryResolve resolves a name, returning the zero value and false if it is
// not registered or has the wrong type. Use for optional dependencies.
func TryResolve[T any](c *Container, name string) (T, bool) {
	var zero T
	instance, err := c.Resolve(name)
	if err != nil {
		return zero, false
	}
	result, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return result, true
}
