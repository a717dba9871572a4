package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the metric instruments for segmentation runs.
// A nil *PipelineMetrics is valid; all methods become no-ops.
type PipelineMetrics struct {
	jobsTotal      metric.Int64Counter
	jobsActive     metric.Int64UpDownCounter
	windowsPlanned metric.Int64Counter
	windowsFailed  metric.Int64Counter
	segmentsCount  metric.Int64Counter
	oracleAttempts metric.Int64Counter
	stageDuration  metric.Float64Histogram
}

// NewPipelineMetrics creates metric instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	jobsTotal, err := meter.Int64Counter("pipeline.jobs.total",
		metric.WithDescription("Completed pipeline jobs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.jobs.total counter: %w", err)
	}

	jobsActive, err := meter.Int64UpDownCounter("pipeline.jobs.active",
		metric.WithDescription("Pipeline jobs currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.jobs.active gauge: %w", err)
	}

	windowsPlanned, err := meter.Int64Counter("pipeline.windows.planned",
		metric.WithDescription("Windows produced by the planner"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.windows.planned counter: %w", err)
	}

	windowsFailed, err := meter.Int64Counter("pipeline.windows.failed",
		metric.WithDescription("Windows skipped after exhausting oracle retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.windows.failed counter: %w", err)
	}

	segmentsCount, err := meter.Int64Counter("pipeline.segments.count",
		metric.WithDescription("Reconciled segments produced"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.segments.count counter: %w", err)
	}

	oracleAttempts, err := meter.Int64Counter("pipeline.oracle.attempts.total",
		metric.WithDescription("Oracle calls issued, including retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.oracle.attempts.total counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Duration of pipeline stages in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}

	return &PipelineMetrics{
		jobsTotal:      jobsTotal,
		jobsActive:     jobsActive,
		windowsPlanned: windowsPlanned,
		windowsFailed:  windowsFailed,
		segmentsCount:  segmentsCount,
		oracleAttempts: oracleAttempts,
		stageDuration:  stageDuration,
	}, nil
}

// RecordJobStart increments the active-job count.
func (m *PipelineMetrics) RecordJobStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, 1)
}

// RecordJobEnd decrements active jobs and records the job outcome.
func (m *PipelineMetrics) RecordJobEnd(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, -1)
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStage records a completed pipeline stage.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordWindows records planner output and per-run window failures.
func (m *PipelineMetrics) RecordWindows(ctx context.Context, planned, failed int) {
	if m == nil {
		return
	}
	m.windowsPlanned.Add(ctx, int64(planned))
	if failed > 0 {
		m.windowsFailed.Add(ctx, int64(failed))
	}
}

// RecordSegments records the reconciled segment count.
func (m *PipelineMetrics) RecordSegments(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.segmentsCount.Add(ctx, int64(count))
}

// RecordOracleAttempt records one oracle call attempt.
func (m *PipelineMetrics) RecordOracleAttempt(ctx context.Context) {
	if m == nil {
		return
	}
	m.oracleAttempts.Add(ctx, 1)
}
