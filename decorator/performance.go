package decorator

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
)

// MetricsRecorder receives per-call measurements from the performance
// decorator. Implementations export to an external metrics backend.
type MetricsRecorder interface {
	RecordCall(ctx context.Context, service, method string, duration time.Duration, err error)
}

// PerformanceOptions configures a Performance decorator.
type PerformanceOptions struct {
	Include []string
	Exclude []string
	// SamplingRate is the fraction of calls measured, in (0, 1]. Unsampled
	// calls pass through with no overhead.
	SamplingRate float64
	// SlowThreshold marks calls slower than this with a warning and a
	// counter. Zero disables slow-call tracking.
	SlowThreshold time.Duration
	// TrackMemory enables heap growth tracking against a periodically
	// reset baseline.
	TrackMemory bool
	// MemoryGrowthThreshold is the heap growth in bytes beyond which a
	// warning is logged.
	MemoryGrowthThreshold uint64
	// BaselineResetInterval controls how often the memory baseline is
	// re-anchored.
	BaselineResetInterval time.Duration
	// WindowSize bounds the per-method duration sample window used for
	// percentiles.
	WindowSize int
	// Metrics, when set, receives every sampled measurement.
	Metrics MetricsRecorder
}

func (o *PerformanceOptions) applyDefaults() {
	if o.SamplingRate <= 0 || o.SamplingRate > 1 {
		o.SamplingRate = 1.0
	}
	if o.WindowSize <= 0 {
		o.WindowSize = 1000
	}
	if o.MemoryGrowthThreshold == 0 {
		o.MemoryGrowthThreshold = 64 << 20
	}
	if o.BaselineResetInterval <= 0 {
		o.BaselineResetInterval = 5 * time.Minute
	}
}

// MethodMetrics is a read-only snapshot of one method's measurements.
type MethodMetrics struct {
	Method    string        `json:"method"`
	Calls     int64         `json:"calls"`
	Errors    int64         `json:"errors"`
	SlowCalls int64         `json:"slow_calls"`
	Min       time.Duration `json:"min"`
	Max       time.Duration `json:"max"`
	Avg       time.Duration `json:"avg"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
}

// methodWindow accumulates durations for one method. The sample window is a
// ring so percentiles reflect recent behavior.
type methodWindow struct {
	calls     int64
	errors    int64
	slowCalls int64
	min       time.Duration
	max       time.Duration
	total     time.Duration
	samples   []time.Duration
	next      int
	filled    bool
}

func (w *methodWindow) record(d time.Duration, failed, slow bool, windowSize int) {
	w.calls++
	if failed {
		w.errors++
	}
	if slow {
		w.slowCalls++
	}
	w.total += d
	if w.calls == 1 || d < w.min {
		w.min = d
	}
	if d > w.max {
		w.max = d
	}

	if len(w.samples) < windowSize {
		w.samples = append(w.samples, d)
		return
	}
	w.samples[w.next] = d
	w.next = (w.next + 1) % windowSize
	w.filled = true
}

// percentile returns the f-th percentile of the window using the nearest-rank
// method on a sorted copy.
func (w *methodWindow) percentile(f float64) time.Duration {
	n := len(w.samples)
	if n == 0 {
		return 0
	}
	sorted := make([]time.Duration, n)
	copy(sorted, w.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(math.Ceil(f*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func (w *methodWindow) snapshot(method string) MethodMetrics {
	m := MethodMetrics{
		Method:    method,
		Calls:     w.calls,
		Errors:    w.errors,
		SlowCalls: w.slowCalls,
		Min:       w.min,
		Max:       w.max,
		P95:       w.percentile(0.95),
		P99:       w.percentile(0.99),
	}
	if w.calls > 0 {
		m.Avg = w.total / time.Duration(w.calls)
	}
	return m
}

// Performance measures call latency and optionally heap growth for a
// service. Measurements are sampled, so high-volume services can run with a
// reduced rate.
type Performance struct {
	forward
	match matcher
	opts  PerformanceOptions
	log   *logger.Logger

	mu      sync.Mutex
	methods map[string]*methodWindow

	memMu         sync.Mutex
	baselineHeap  uint64
	baselineTaken time.Time
}

var _ Decorator = (*Performance)(nil)

// NewPerformance wraps target in a performance-measuring decorator.
func NewPerformance(target registry.Invoker, opts PerformanceOptions) *Performance {
	opts.applyDefaults()
	d := &Performance{
		forward: forward{target: target},
		match:   newMatcher(opts.Include, opts.Exclude),
		opts:    opts,
		log:     logger.Get("decorator.performance").WithFields(logger.Fields(logger.FieldService, target.ServiceName())),
		methods: make(map[string]*methodWindow),
	}
	if opts.TrackMemory {
		d.resetBaseline()
	}
	return d
}

// Kind returns TypePerformance.
func (d *Performance) Kind() Type { return TypePerformance }

// Invoke measures the call when it is sampled, otherwise forwards directly.
func (d *Performance) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if !d.match.intercepts(method) || !d.sampled() {
		return d.target.Invoke(ctx, method, args...)
	}

	start := time.Now()
	result, err := d.target.Invoke(ctx, method, args...)
	elapsed := time.Since(start)

	slow := d.opts.SlowThreshold > 0 && elapsed > d.opts.SlowThreshold

	d.mu.Lock()
	w, ok := d.methods[method]
	if !ok {
		w = &methodWindow{}
		d.methods[method] = w
	}
	w.record(elapsed, err != nil, slow, d.opts.WindowSize)
	d.mu.Unlock()

	if slow {
		d.log.Warn("Slow call detected", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldDuration, elapsed.String(),
			"threshold", d.opts.SlowThreshold.String(),
		))
	}

	if d.opts.TrackMemory {
		d.checkMemory(method)
	}

	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordCall(ctx, d.target.ServiceName(), method, elapsed, err)
	}
	return result, err
}

func (d *Performance) sampled() bool {
	if d.opts.SamplingRate >= 1 {
		return true
	}
	return rand.Float64() < d.opts.SamplingRate
}

// checkMemory compares current heap usage against the baseline, warning on
// growth past the threshold. The baseline re-anchors on an interval so slow
// organic growth does not warn forever.
func (d *Performance) checkMemory(method string) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	d.memMu.Lock()
	defer d.memMu.Unlock()

	if time.Since(d.baselineTaken) > d.opts.BaselineResetInterval {
		d.baselineHeap = stats.HeapAlloc
		d.baselineTaken = time.Now()
		return
	}

	if stats.HeapAlloc > d.baselineHeap && stats.HeapAlloc-d.baselineHeap > d.opts.MemoryGrowthThreshold {
		d.log.Warn("Heap growth threshold exceeded", logger.Fields(
			logger.FieldMethod, method,
			"heap_bytes", stats.HeapAlloc,
			"baseline_bytes", d.baselineHeap,
			"growth_bytes", stats.HeapAlloc-d.baselineHeap,
		))
		d.baselineHeap = stats.HeapAlloc
		d.baselineTaken = time.Now()
	}
}

func (d *Performance) resetBaseline() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	d.memMu.Lock()
	d.baselineHeap = stats.HeapAlloc
	d.baselineTaken = time.Now()
	d.memMu.Unlock()
}

// GetMetrics returns a snapshot for every measured method.
func (d *Performance) GetMetrics() map[string]MethodMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]MethodMetrics, len(d.methods))
	for method, w := range d.methods {
		out[method] = w.snapshot(method)
	}
	return out
}

// GetMethodMetrics returns the snapshot for one method, if measured.
func (d *Performance) GetMethodMetrics(method string) (MethodMetrics, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.methods[method]
	if !ok {
		return MethodMetrics{}, false
	}
	return w.snapshot(method), true
}

// ResetMetrics clears every sample window and, when memory tracking is on,
// re-anchors the heap baseline.
func (d *Performance) ResetMetrics() {
	d.mu.Lock()
	d.methods = make(map[string]*methodWindow)
	d.mu.Unlock()

	if d.opts.TrackMemory {
		d.resetBaseline()
	}
}
