package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func counterTotal(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "type = %T, want Sum[int64]", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestObserverRecordsDispatches(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	obs, err := NewObserver(mp.Meter("test"), tp.Tracer("test"))
	require.NoError(t, err)

	_, finish := obs.Start(context.Background(), "ideal_gas_density", "json")
	finish(OutcomeOK, nil)
	_, finish = obs.Start(context.Background(), "ideal_gas_density", "form")
	finish("validation", errors.New("bad input"))

	rm := collect(t, reader)
	assert.EqualValues(t, 2, counterTotal(t, findMetric(rm, "sysprop.dispatch.requests")))
	assert.EqualValues(t, 1, counterTotal(t, findMetric(rm, "sysprop.dispatch.failures")))

	latency := findMetric(rm, "sysprop.dispatch.latency")
	require.NotNil(t, latency)
	_, ok := latency.Data.(metricdata.Histogram[float64])
	assert.True(t, ok)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "tool.dispatch", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "validation", spans[1].Status.Description)
}

func TestNilObserverIsSafe(t *testing.T) {
	var obs *Observer
	ctx := context.Background()
	got, finish := obs.Start(ctx, "x", "json")
	assert.Equal(t, ctx, got)
	finish(OutcomeOK, nil)
}

func TestSetupDisabledKeepsGlobals(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupInstallsProviders(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	reader := sdkmetric.NewManualReader()
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "sysprop-test"},
		WithMetricReader(reader), WithSpanExporter(exporter))
	require.NoError(t, err)

	obs, err := NewGlobalObserver()
	require.NoError(t, err)
	_, finish := obs.Start(context.Background(), "vapour_pressure_water", "json")
	finish(OutcomeOK, nil)

	rm := collect(t, reader)
	assert.EqualValues(t, 1, counterTotal(t, findMetric(rm, "sysprop.dispatch.requests")))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "sysprop-test" {
			found = true
		}
	}
	assert.True(t, found, "service.name resource attribute missing")

	assert.NoError(t, shutdown(context.Background()))
}
