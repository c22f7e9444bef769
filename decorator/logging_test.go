package decorator

import (
	"context"
	"testing"
	"time"
)

func TestLoggingCountsSuccessesAndFailures(t *testing.T) {
	_, inv := newVaultInvoker()
	d := NewLogging(inv, LoggingOptions{})

	ctx := context.Background()
	if _, err := d.Invoke(ctx, "getEntry", "mail"); err != nil {
		t.Fatalf("getEntry failed: %v", err)
	}
	if _, err := d.Invoke(ctx, "getEntry", "bank"); err != nil {
		t.Fatalf("getEntry failed: %v", err)
	}
	if _, err := d.Invoke(ctx, "getEntry"); err == nil {
		t.Fatal("expected failure without id")
	}

	stats := d.GetStats()
	if stats.TotalCalls != 3 {
		t.Errorf("expected 3 calls, got %d", stats.TotalCalls)
	}
	if stats.TotalFailures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.TotalFailures)
	}

	ms, ok := d.GetMethodStats("getEntry")
	if !ok {
		t.Fatal("expected stats for getEntry")
	}
	if ms.Calls != 3 || ms.Successes != 2 || ms.Failures != 1 {
		t.Errorf("unexpected method stats: %+v", ms)
	}
	if ms.Min > ms.Max {
		t.Errorf("min %v exceeds max %v", ms.Min, ms.Max)
	}
}

func TestLoggingRespectsExclude(t *testing.T) {
	_, inv := newVaultInvoker()
	d := NewLogging(inv, LoggingOptions{Exclude: []string{"list*"}})

	if _, err := d.Invoke(context.Background(), "listEntries"); err != nil {
		t.Fatalf("listEntries failed: %v", err)
	}

	if _, ok := d.GetMethodStats("listEntries"); ok {
		t.Error("excluded method should not be recorded")
	}
}

func TestLoggingSlowestMethodsOrdering(t *testing.T) {
	svc, inv := newVaultInvoker()
	d := NewLogging(inv, LoggingOptions{})

	ctx := context.Background()
	if _, err := d.Invoke(ctx, "listEntries"); err != nil {
		t.Fatalf("listEntries failed: %v", err)
	}
	svc.delay = 5 * time.Millisecond
	if _, err := d.Invoke(ctx, "getEntry", "mail"); err != nil {
		t.Fatalf("getEntry failed: %v", err)
	}

	slowest := d.GetSlowestMethods(1)
	if len(slowest) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(slowest))
	}
	if slowest[0].Method != "getEntry" {
		t.Errorf("expected getEntry slowest, got %q", slowest[0].Method)
	}
}
