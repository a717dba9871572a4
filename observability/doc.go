// Package observability provides OpenTelemetry tracing and metrics for the
// segmentation pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("clipwise"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "pipeline.run")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("clipwise"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewPipelineMetrics(observability.Meter("clipwise"))
//	metrics.RecordStage(ctx, "transcribing", "ok", elapsed)
//
// All PipelineMetrics methods are nil-safe so the pipeline runs unchanged
// with telemetry disabled.
package observability
