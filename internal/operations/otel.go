package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pricecharts/internal/infrastructure"
)

// OperationTracer provides OpenTelemetry instrumentation for runs and steps
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer over the run's telemetry
func NewOperationTracer(tel *infrastructure.Telemetry) (*OperationTracer, error) {
	if tel == nil {
		tel = infrastructure.NoopTelemetry()
	}

	metrics, err := infrastructure.CreatePipelineMetrics(tel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	return &OperationTracer{
		tracer:  tel.Tracer,
		metrics: metrics,
	}, nil
}

// Metrics returns the pipeline instruments
func (pt *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	return pt.metrics
}

// TraceRun creates a span for the entire run
func (pt *OperationTracer) TraceRun(ctx context.Context, runID, inputPath string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.input", inputPath),
		),
	)
}

// TraceStep creates a span for one step
func (pt *OperationTracer) TraceStep(ctx context.Context, runID string, step Step) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.step",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// RecordStepCompletion ends a step span and records the step duration
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	infrastructure.RecordStepMetrics(ctx, pt.metrics, stepID, duration, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		infrastructure.AddSpanEvent(ctx, "step.completed", attribute.String("step.id", stepID))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordRunCompletion ends the run span and records the run duration
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, status OperationStatus, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)
	pt.metrics.RunDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", string(status))))

	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordLookup counts a selector lookup
func (pt *OperationTracer) RecordLookup(ctx context.Context, hit bool) {
	if hit {
		pt.metrics.CacheHits.Add(ctx, 1)
		return
	}
	pt.metrics.CacheMisses.Add(ctx, 1)
}
