package di

import (
	"errors"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/vaultpass/servicekit/errors"
)

func TestRegisterAndResolve(t *testing.T) {
	c := NewContainer()

	err := c.Register("greeting", func(r Resolver) (any, error) {
		return "hello", nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	val, err := c.Resolve("greeting")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if val != "hello" {
		t.Errorf("expected 'hello', got %v", val)
	}
}

func TestRegisterValidation(t *testing.T) {
	c := NewContainer()
	factory := func(r Resolver) (any, error) { return 1, nil }

	if err := c.Register("", factory); !apperrors.IsCode(err, apperrors.ErrCodeRegistrationFailed) {
		t.Errorf("expected REGISTRATION_FAILED for empty name, got %v", err)
	}
	if err := c.Register("thing", nil); !apperrors.IsCode(err, apperrors.ErrCodeRegistrationFailed) {
		t.Errorf("expected REGISTRATION_FAILED for nil factory, got %v", err)
	}

	if err := c.Register("thing", factory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := c.Register("thing", factory); !apperrors.IsCode(err, apperrors.ErrCodeRegistrationFailed) {
		t.Errorf("expected REGISTRATION_FAILED for duplicate name, got %v", err)
	}
}

func TestRegisterDoesNotInvokeFactory(t *testing.T) {
	c := NewContainer()
	called := false
	c.Register("lazy", func(r Resolver) (any, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("expected factory not to run at registration time")
	}
}

func TestResolveNotRegistered(t *testing.T) {
	c := NewContainer()
	_, err := c.Resolve("nonexistent")
	if !apperrors.IsCode(err, apperrors.ErrCodeNotRegistered) {
		t.Errorf("expected NOT_REGISTERED, got %v", err)
	}
}

func TestSingletonResolvedOnce(t *testing.T) {
	c := NewContainer()
	count := 0
	c.Register("counter", func(r Resolver) (any, error) {
		count++
		return &count, nil
	}, Singleton())

	a, err := c.Resolve("counter")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	b, err := c.Resolve("counter")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if a != b {
		t.Error("expected reference-identical singleton instances")
	}
	if count != 1 {
		t.Errorf("expected factory to run once, ran %d times", count)
	}
}

func TestTransientResolvedFresh(t *testing.T) {
	c := NewContainer()
	count := 0
	c.Register("fresh", func(r Resolver) (any, error) {
		count++
		n := count
		return &n, nil
	})

	a, _ := c.Resolve("fresh")
	b, _ := c.Resolve("fresh")
	if a == b {
		t.Error("expected distinct transient instances")
	}
	if count != 2 {
		t.Errorf("expected factory to run twice, ran %d times", count)
	}
}

func TestDependencyResolution(t *testing.T) {
	c := NewContainer()
	c.Register("config", func(r Resolver) (any, error) {
		return map[string]string{"db": "sqlite"}, nil
	}, Singleton())
	c.Register("repo", func(r Resolver) (any, error) {
		cfg, err := r.Resolve("config")
		if err != nil {
			return nil, err
		}
		return "repo:" + cfg.(map[string]string)["db"], nil
	})

	val, err := c.Resolve("repo")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if val != "repo:sqlite" {
		t.Errorf("unexpected value: %v", val)
	}
}

func TestCircularDependency(t *testing.T) {
	c := NewContainer()
	c.Register("x", func(r Resolver) (any, error) {
		return r.Resolve("y")
	})
	c.Register("y", func(r Resolver) (any, error) {
		return r.Resolve("x")
	})

	_, err := c.Resolve("x")
	if !apperrors.IsCode(err, apperrors.ErrCodeCircularDependency) {
		t.Fatalf("expected CIRCULAR_DEPENDENCY, got %v", err)
	}
	if !strings.Contains(err.Error(), "x -> y -> x") {
		t.Errorf("expected full cycle path in message, got %q", err.Error())
	}
}

func TestSelfCycle(t *testing.T) {
	c := NewContainer()
	c.Register("narcissus", func(r Resolver) (any, error) {
		return r.Resolve("narcissus")
	})

	_, err := c.Resolve("narcissus")
	if !apperrors.IsCode(err, apperrors.ErrCodeCircularDependency) {
		t.Fatalf("expected CIRCULAR_DEPENDENCY, got %v", err)
	}
	if !strings.Contains(err.Error(), "narcissus -> narcissus") {
		t.Errorf("expected self-cycle path, got %q", err.Error())
	}
}

func TestFactoryFailureLeavesNoPoisonedState(t *testing.T) {
	c := NewContainer()
	attempts := 0
	c.Register("flaky", func(r Resolver) (any, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient wiring failure")
		}
		return "ok", nil
	}, Singleton())

	if _, err := c.Resolve("flaky"); err == nil {
		t.Fatal("expected first resolve to fail")
	}

	// The stack entry was removed on failure; a retry must work, not report
	// a bogus cycle.
	val, err := c.Resolve("flaky")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if val != "ok" {
		t.Errorf("unexpected value: %v", val)
	}
}

func TestConcurrentSingletonResolution(t *testing.T) {
	c := NewContainer()
	count := 0
	c.Register("shared", func(r Resolver) (any, error) {
		count++
		v := count
		return &v, nil
	}, Singleton())

	const workers = 16
	results := make([]any, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve("shared")
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if count != 1 {
		t.Errorf("expected factory to run once under contention, ran %d times", count)
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("expected all goroutines to see the same singleton")
		}
	}
}

func TestCreateScopeIsIndependent(t *testing.T) {
	c := NewContainer()
	c.Register("svc", func(r Resolver) (any, error) { return "parent", nil }, Singleton())

	scope := c.CreateScope()
	if scope.Has("svc") {
		t.Error("expected scope to share no registrations with parent")
	}

	scope.Register("svc", func(r Resolver) (any, error) { return "child", nil })
	val, _ := scope.Resolve("svc")
	if val != "child" {
		t.Errorf("unexpected scope value: %v", val)
	}

	val, _ = c.Resolve("svc")
	if val != "parent" {
		t.Errorf("scope leaked into parent: %v", val)
	}
}

type disposableThing struct {
	disposed bool
	fail     bool
}

func (d *disposableThing) Dispose() error {
	d.disposed = true
	if d.fail {
		return errors.New("dispose blew up")
	}
	return nil
}

func TestDisposeCallsHooksAndClears(t *testing.T) {
	c := NewContainer()
	good := &disposableThing{}
	bad := &disposableThing{fail: true}

	c.Register("good", func(r Resolver) (any, error) { return good, nil }, Singleton())
	c.Register("bad", func(r Resolver) (any, error) { return bad, nil }, Singleton())
	c.Register("never", func(r Resolver) (any, error) {
		t.Error("factory for un-resolved registration must not run during dispose")
		return nil, nil
	}, Singleton())

	c.Resolve("good")
	c.Resolve("bad")

	c.Dispose()

	if !good.disposed || !bad.disposed {
		t.Error("expected every instantiated singleton to be disposed, even past failures")
	}
	if c.Has("good") {
		t.Error("expected registrations cleared after dispose")
	}
}

func TestTypedResolve(t *testing.T) {
	c := NewContainer()
	c.Register("answer", func(r Resolver) (any, error) { return 42, nil })

	n, err := Resolve[int](c, "answer")
	if err != nil {
		t.Fatalf("Resolve[int] failed: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}

	if _, err := Resolve[string](c, "answer"); err == nil {
		t.Error("expected type mismatch error")
	}

	if _, ok := TryResolve[int](c, "missing"); ok {
		t.Error("expected TryResolve to report missing name")
	}
	if v, ok := TryResolve[int](c, "answer"); !ok || v != 42 {
		t.Errorf("TryResolve returned %v, %v", v, ok)
	}
}

func TestMustResolvePanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Error("expected MustResolve to panic for unknown name")
		}
	}()
	MustResolve[int](c, "missing")
}
