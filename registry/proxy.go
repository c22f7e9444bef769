package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpass/servicekit/logger"
)

// InterceptionContext describes one intercepted call. It lives only for the
// duration of that call.
type InterceptionContext struct {
	Service       string
	Method        string
	Args          []any
	StartedAt     time.Time
	CorrelationID string
}

// Proxy is the method-interception layer applied by GetInstance(WithProxy).
// It logs entry/exit and timing for every declared method without altering
// the service's call surface.
type Proxy struct {
	target Invoker
	log    *logger.Logger
}

var _ Invoker = (*Proxy)(nil)

// NewProxy wraps an Invoker in the interception layer.
func NewProxy(target Invoker) *Proxy {
	return &Proxy{
		target: target,
		log:    logger.Get("proxy").WithFields(logger.Fields(logger.FieldService, target.ServiceName())),
	}
}

// ServiceName returns the wrapped service's name.
func (p *Proxy) ServiceName() string { return p.target.ServiceName() }

// HealthStatus returns the wrapped service's health.
func (p *Proxy) HealthStatus() Health { return p.target.HealthStatus() }

// Methods returns the wrapped service's declared method names.
func (p *Proxy) Methods() []string { return p.target.Methods() }

// Invoke forwards the call, logging entry, exit, and duration.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	ic := InterceptionContext{
		Service:       p.target.ServiceName(),
		Method:        method,
		Args:          args,
		StartedAt:     time.Now(),
		CorrelationID: uuid.NewString(),
	}

	p.log.Debug("Call started", logger.Fields(
		logger.FieldMethod, method,
		logger.FieldCorrelationID, ic.CorrelationID,
	))

	result, err := p.target.Invoke(ctx, method, args...)
	duration := time.Since(ic.StartedAt)

	if err != nil {
		p.log.Warn("Call failed", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldCorrelationID, ic.CorrelationID,
			logger.FieldDuration, duration.Milliseconds(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	p.log.Debug("Call completed", logger.Fields(
		logger.FieldMethod, method,
		logger.FieldCorrelationID, ic.CorrelationID,
		logger.FieldDuration, duration.Milliseconds(),
	))
	return result, nil
}

// Unwrap returns the wrapped Invoker.
func (p *Proxy) Unwrap() Invoker { return p.target }
