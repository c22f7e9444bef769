package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CallContext holds observability context for one tracked service call.
type CallContext struct {
	ServiceName   string
	Method        string
	CorrelationID string
	StartTime     time.Time
	Metrics       *Metrics
}

// NewCallContext creates a call context. If metrics is nil, metric recording
// is silently skipped.
func NewCallContext(serviceName, method, correlationID string, metrics *Metrics) *CallContext {
	return &CallContext{
		ServiceName:   serviceName,
		Method:        method,
		CorrelationID: correlationID,
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

// callContextKey is the context key for CallContext.
type callContextKey struct{}

// WithCallContext stores a CallContext in the context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFromContext retrieves the CallContext from context, or nil.
func CallContextFromContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey{}).(*CallContext); ok {
		return cc
	}
	return nil
}

// StartSpanForCall starts a traced span and records the call start metric.
func (cc *CallContext) StartSpanForCall(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanServiceCall)
	span.SetAttributes(
		attribute.String(AttrServiceName, cc.ServiceName),
		attribute.String(AttrMethodName, cc.Method),
	)
	if cc.CorrelationID != "" {
		span.SetAttributes(attribute.String(AttrCorrelationID, cc.CorrelationID))
	}

	if cc.Metrics != nil {
		cc.Metrics.RecordCallStart(ctx)
	}
	return ctx, span
}

// EndCall ends the span and records call-end metrics.
func (cc *CallContext) EndCall(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(cc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if cc.Metrics != nil {
		cc.Metrics.RecordCallEnd(ctx, cc.ServiceName, cc.Method, status, duration)
	}
}

// Duration returns the elapsed time since the call started.
func (cc *CallContext) Duration() time.Duration {
	return time.Since(cc.StartTime)
}
