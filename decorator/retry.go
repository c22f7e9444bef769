package decorator

import (
	"context"

	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
	"github.com/vaultpass/servicekit/resilience"
)

// RetryOptions configures a Retry decorator.
type RetryOptions struct {
	Include []string
	Exclude []string
	// Retry is the retry policy applied to intercepted calls. Zero values
	// fall back to the package defaults.
	Retry resilience.RetryConfig
}

// Retry re-invokes failed calls according to a backoff policy. Only methods
// matched by the include/exclude patterns are retried; everything else passes
// through on the first attempt.
type Retry struct {
	forward
	match matcher
	opts  RetryOptions
	log   *logger.Logger
}

var _ Decorator = (*Retry)(nil)

// NewRetry wraps target in a retrying decorator.
func NewRetry(target registry.Invoker, opts RetryOptions) *Retry {
	return &Retry{
		forward: forward{target: target},
		match:   newMatcher(opts.Include, opts.Exclude),
		opts:    opts,
		log:     logger.Get("decorator.retry").WithFields(logger.Fields(logger.FieldService, target.ServiceName())),
	}
}

// Kind returns TypeRetry.
func (d *Retry) Kind() Type { return TypeRetry }

// Invoke retries intercepted calls per the configured policy.
func (d *Retry) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if !d.match.intercepts(method) {
		return d.target.Invoke(ctx, method, args...)
	}

	result, err := resilience.Retry(ctx, d.opts.Retry, func() (any, error) {
		return d.target.Invoke(ctx, method, args...)
	})
	if err != nil {
		d.log.Warn("Call failed after retries", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldError, err.Error(),
		))
	}
	return result, err
}
