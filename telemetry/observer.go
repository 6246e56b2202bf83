package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeOK marks a dispatch that produced a body.
const OutcomeOK = "ok"

// Observer records one span, a counter and a latency sample per dispatch.
// A nil Observer records nothing.
type Observer struct {
	tracer trace.Tracer

	dispatches metric.Int64Counter
	failures   metric.Int64Counter
	latency    metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter/tracer.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	dispatches, err := meter.Int64Counter(
		"sysprop.dispatch.requests",
		metric.WithDescription("Number of tool dispatches"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(
		"sysprop.dispatch.failures",
		metric.WithDescription("Number of tool dispatches that did not produce a result"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"sysprop.dispatch.latency",
		metric.WithDescription("Dispatch latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &Observer{
		tracer:     tracer,
		dispatches: dispatches,
		failures:   failures,
		latency:    latency,
	}, nil
}

// FinishFunc completes an observation with its outcome: OutcomeOK or an
// error kind.
type FinishFunc func(outcome string, err error)

// Start opens a dispatch observation for tool arriving via source.
func (o *Observer) Start(ctx context.Context, tool, source string) (context.Context, FinishFunc) {
	if o == nil {
		return ctx, func(string, error) {}
	}

	base := []attribute.KeyValue{
		attribute.String("tool_name", tool),
		attribute.String("source", source),
	}
	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "tool.dispatch", trace.WithAttributes(base...))
	}
	started := time.Now()

	return ctx, func(outcome string, err error) {
		attrs := append(base, attribute.String("outcome", outcome))
		options := metric.WithAttributes(attrs...)

		o.dispatches.Add(ctx, 1, options)
		o.latency.Record(ctx, time.Since(started).Seconds(), options)
		if outcome != OutcomeOK {
			o.failures.Add(ctx, 1, options)
		}

		if span == nil {
			return
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
