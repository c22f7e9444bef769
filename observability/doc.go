// Package observability provides OpenTelemetry tracing and metrics
// integration for the service runtime.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("vaultpass"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanServiceCall)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("vaultpass"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("vaultpass"))
//	metrics.RecordCallEnd(ctx, "vaultService", "getEntry", "ok", duration)
//
// A Recorder bridges the performance decorator's measurements into the
// instruments:
//
//	rec := observability.NewRecorder(metrics)
//	decorator.NewPerformance(target, decorator.PerformanceOptions{Metrics: rec})
package observability
