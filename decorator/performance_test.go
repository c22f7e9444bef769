package decorator

import (
	"context"
	"testing"
	"time"
)

func TestPerformanceRecordsAggregates(t *testing.T) {
	_, inv := newVaultInvoker()
	d := NewPerformance(inv, PerformanceOptions{})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := d.Invoke(ctx, "getEntry", "mail"); err != nil {
			t.Fatalf("getEntry failed: %v", err)
		}
	}
	if _, err := d.Invoke(ctx, "getEntry"); err == nil {
		t.Fatal("expected failure without id")
	}

	m, ok := d.GetMethodMetrics("getEntry")
	if !ok {
		t.Fatal("expected metrics for getEntry")
	}
	if m.Calls != 6 {
		t.Errorf("expected 6 calls, got %d", m.Calls)
	}
	if m.Errors != 1 {
		t.Errorf("expected 1 error, got %d", m.Errors)
	}
	if m.Min > m.Max || m.Avg == 0 {
		t.Errorf("inconsistent aggregates: %+v", m)
	}
}

func TestPerformancePercentiles(t *testing.T) {
	w := &methodWindow{}
	// 1ms..100ms: p95 should be the 95th value, p99 the 99th.
	for i := 1; i <= 100; i++ {
		w.record(time.Duration(i)*time.Millisecond, false, false, 1000)
	}

	if got := w.percentile(0.95); got != 95*time.Millisecond {
		t.Errorf("p95 = %v, want 95ms", got)
	}
	if got := w.percentile(0.99); got != 99*time.Millisecond {
		t.Errorf("p99 = %v, want 99ms", got)
	}
	if got := w.percentile(0.50); got != 50*time.Millisecond {
		t.Errorf("p50 = %v, want 50ms", got)
	}
}

func TestPerformanceWindowIsBounded(t *testing.T) {
	w := &methodWindow{}
	for i := 0; i < 150; i++ {
		w.record(time.Millisecond, false, false, 100)
	}

	if len(w.samples) != 100 {
		t.Errorf("expected window of 100, got %d", len(w.samples))
	}
	if w.calls != 150 {
		t.Errorf("expected 150 total calls, got %d", w.calls)
	}
}

func TestPerformanceSlowCallCounter(t *testing.T) {
	svc, inv := newVaultInvoker()
	svc.delay = 10 * time.Millisecond
	d := NewPerformance(inv, PerformanceOptions{SlowThreshold: time.Millisecond})

	if _, err := d.Invoke(context.Background(), "getEntry", "mail"); err != nil {
		t.Fatalf("getEntry failed: %v", err)
	}

	m, ok := d.GetMethodMetrics("getEntry")
	if !ok || m.SlowCalls != 1 {
		t.Errorf("expected 1 slow call, got %+v", m)
	}
}

func TestPerformanceResetMetrics(t *testing.T) {
	_, inv := newVaultInvoker()
	d := NewPerformance(inv, PerformanceOptions{})

	if _, err := d.Invoke(context.Background(), "listEntries"); err != nil {
		t.Fatal(err)
	}
	d.ResetMetrics()

	if metrics := d.GetMetrics(); len(metrics) != 0 {
		t.Errorf("expected empty metrics after reset, got %v", metrics)
	}
}

type recordedCall struct {
	service string
	method  string
	failed  bool
}

type fakeRecorder struct {
	calls []recordedCall
}

func (r *fakeRecorder) RecordCall(ctx context.Context, service, method string, duration time.Duration, err error) {
	r.calls = append(r.calls, recordedCall{service: service, method: method, failed: err != nil})
}

func TestPerformanceForwardsToRecorder(t *testing.T) {
	_, inv := newVaultInvoker()
	rec := &fakeRecorder{}
	d := NewPerformance(inv, PerformanceOptions{Metrics: rec})

	ctx := context.Background()
	if _, err := d.Invoke(ctx, "listEntries"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Invoke(ctx, "getEntry"); err == nil {
		t.Fatal("expected failure without id")
	}

	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", len(rec.calls))
	}
	if rec.calls[0].service != "vaultService" || rec.calls[0].method != "listEntries" || rec.calls[0].failed {
		t.Errorf("unexpected first record: %+v", rec.calls[0])
	}
	if !rec.calls[1].failed {
		t.Error("expected second record to carry the error")
	}
}
