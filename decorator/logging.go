package decorator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
	"github.com/vaultpass/servicekit/util"
)

// LoggingOptions configures a Logging decorator.
type LoggingOptions struct {
	// Include/Exclude are glob patterns over method names. Empty include
	// intercepts every method.
	Include []string
	Exclude []string
	// LogArgs includes a redacted snapshot of call arguments in the start
	// event. Sensitive keys (password, token, ...) are replaced.
	LogArgs bool
	// LogResults includes a redacted result snapshot in the success event.
	LogResults bool
}

// MethodStats is a per-method rolling aggregate.
type MethodStats struct {
	Method    string        `json:"method"`
	Calls     int64         `json:"calls"`
	Successes int64         `json:"successes"`
	Failures  int64         `json:"failures"`
	Min       time.Duration `json:"min_ns"`
	Max       time.Duration `json:"max_ns"`
	Avg       time.Duration `json:"avg_ns"`
	total     time.Duration
}

// LoggingStats aggregates across all intercepted methods.
type LoggingStats struct {
	TotalCalls    int64                  `json:"total_calls"`
	TotalFailures int64                  `json:"total_failures"`
	Methods       map[string]MethodStats `json:"methods"`
}

// Logging logs a start event and a success or failure event (with duration)
// for every intercepted call, and maintains per-method rolling stats.
type Logging struct {
	forward
	match matcher
	opts  LoggingOptions
	log   *logger.Logger

	mu      sync.Mutex
	methods map[string]*MethodStats
}

var _ Decorator = (*Logging)(nil)

// NewLogging wraps target in a logging decorator.
func NewLogging(target registry.Invoker, opts LoggingOptions) *Logging {
	return &Logging{
		forward: forward{target: target},
		match:   newMatcher(opts.Include, opts.Exclude),
		opts:    opts,
		log:     logger.Get("decorator.logging").WithFields(logger.Fields(logger.FieldService, target.ServiceName())),
		methods: make(map[string]*MethodStats),
	}
}

// Kind returns TypeLogging.
func (d *Logging) Kind() Type { return TypeLogging }

// Invoke forwards the call, logging around it when the method matches.
func (d *Logging) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if !d.match.intercepts(method) {
		return d.target.Invoke(ctx, method, args...)
	}

	startFields := logger.Fields(logger.FieldMethod, method)
	if d.opts.LogArgs {
		startFields["args"] = util.RedactArgs(args)
	}
	d.log.Debug("Method call started", startFields)

	start := time.Now()
	result, err := d.target.Invoke(ctx, method, args...)
	duration := time.Since(start)

	d.record(method, duration, err == nil)

	if err != nil {
		d.log.Warn("Method call failed", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldDuration, duration.Milliseconds(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	doneFields := logger.Fields(
		logger.FieldMethod, method,
		logger.FieldDuration, duration.Milliseconds(),
	)
	if d.opts.LogResults {
		doneFields["result"] = util.RedactValue(result)
	}
	d.log.Debug("Method call completed", doneFields)
	return result, nil
}

func (d *Logging) record(method string, duration time.Duration, success bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats, ok := d.methods[method]
	if !ok {
		stats = &MethodStats{Method: method, Min: duration, Max: duration}
		d.methods[method] = stats
	}

	stats.Calls++
	if success {
		stats.Successes++
	} else {
		stats.Failures++
	}
	stats.total += duration
	if duration < stats.Min {
		stats.Min = duration
	}
	if duration > stats.Max {
		stats.Max = duration
	}
	stats.Avg = stats.total / time.Duration(stats.Calls)
}

// GetStats returns a snapshot of all method stats.
func (d *Logging) GetStats() LoggingStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := LoggingStats{Methods: make(map[string]MethodStats, len(d.methods))}
	for name, stats := range d.methods {
		out.Methods[name] = *stats
		out.TotalCalls += stats.Calls
		out.TotalFailures += stats.Failures
	}
	return out
}

// GetMethodStats returns the rolling stats of one method.
func (d *Logging) GetMethodStats(method string) (MethodStats, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats, ok := d.methods[method]
	if !ok {
		return MethodStats{}, false
	}
	return *stats, true
}

// GetSlowestMethods returns up to n methods ranked by average duration,
// slowest first.
func (d *Logging) GetSlowestMethods(n int) []MethodStats {
	d.mu.Lock()
	out := make([]MethodStats, 0, len(d.methods))
	for _, stats := range d.methods {
		out = append(out, *stats)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Avg > out[j].Avg })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
