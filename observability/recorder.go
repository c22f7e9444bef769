package observability

import (
	"context"
	"time"

	"github.com/vaultpass/servicekit/decorator"
	apperrors "github.com/vaultpass/servicekit/errors"
)

// Recorder feeds measurements from the performance decorator into the
// OpenTelemetry instruments.
type Recorder struct {
	metrics *Metrics
}

var _ decorator.MetricsRecorder = (*Recorder)(nil)

// NewRecorder returns a Recorder backed by the given instruments.
func NewRecorder(metrics *Metrics) *Recorder {
	return &Recorder{metrics: metrics}
}

// RecordCall records one measured service call.
func (r *Recorder) RecordCall(ctx context.Context, service, method string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordCallStart(ctx)
	r.metrics.RecordCallEnd(ctx, service, method, status, duration)
	if err != nil {
		r.metrics.RecordError(ctx, string(apperrors.CodeOf(err)), service)
	}
}
