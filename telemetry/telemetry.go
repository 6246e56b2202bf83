// Package telemetry installs OpenTelemetry providers and records dispatch
// signals.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ScopeName identifies this service's meter and tracer.
const ScopeName = "sysprop/dispatch"

type Config struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

type setupOptions struct {
	readers  []sdkmetric.Reader
	exporter sdktrace.SpanExporter
}

type Option func(*setupOptions)

// WithMetricReader attaches a reader to the meter provider.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *setupOptions) { o.readers = append(o.readers, r) }
}

// WithSpanExporter exports spans synchronously to exp instead of OTLP.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *setupOptions) { o.exporter = exp }
}

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs global tracer and meter providers. When telemetry is
// disabled the global no-op providers stay in place.
func Setup(ctx context.Context, cfg Config, opts ...Option) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	o := setupOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "sysprop"
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attribute.String("service.name", name)))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch {
	case o.exporter != nil:
		traceOpts = append(traceOpts, sdktrace.WithSyncer(o.exporter))
	case cfg.OTLPEndpoint != "":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(traceOpts...)

	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range o.readers {
		meterOpts = append(meterOpts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(meterOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// NewGlobalObserver binds an Observer to the globally installed providers.
func NewGlobalObserver() (*Observer, error) {
	return NewObserver(otel.GetMeterProvider().Meter(ScopeName), otel.GetTracerProvider().Tracer(ScopeName))
}
