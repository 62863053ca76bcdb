// Package telemetry records resolution metrics and factory spans with OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ScopeName is the instrumentation scope used for meters and tracers.
const ScopeName = "github.com/junioryono/giveme"

const (
	MetricResolutions     = "giveme.resolutions"
	MetricFactoryCalls    = "giveme.factory.invocations"
	MetricFactoryErrors   = "giveme.factory.errors"
	MetricFactoryDuration = "giveme.factory.duration_ms"
	SpanFactory           = "giveme.factory"

	AttrName   = attribute.Key("giveme.name")
	AttrPolicy = attribute.Key("giveme.policy")
	AttrCached = attribute.Key("giveme.cached")
)

// Recorder records dependency resolutions and factory invocations.
type Recorder struct {
	resolutions     metric.Int64Counter
	factoryCalls    metric.Int64Counter
	factoryErrors   metric.Int64Counter
	factoryDuration metric.Float64Histogram
	tracer          trace.Tracer
}

// New creates a Recorder. Nil providers fall back to the global ones.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	meter := mp.Meter(ScopeName)

	resolutions, err := meter.Int64Counter(MetricResolutions,
		metric.WithDescription("Number of dependency resolutions"),
	)
	if err != nil {
		return nil, err
	}

	factoryCalls, err := meter.Int64Counter(MetricFactoryCalls,
		metric.WithDescription("Number of factory invocations"),
	)
	if err != nil {
		return nil, err
	}

	factoryErrors, err := meter.Int64Counter(MetricFactoryErrors,
		metric.WithDescription("Number of factory invocations that failed"),
	)
	if err != nil {
		return nil, err
	}

	factoryDuration, err := meter.Float64Histogram(MetricFactoryDuration,
		metric.WithDescription("Factory invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		resolutions:     resolutions,
		factoryCalls:    factoryCalls,
		factoryErrors:   factoryErrors,
		factoryDuration: factoryDuration,
		tracer:          tp.Tracer(ScopeName),
	}, nil
}

// Noop returns a Recorder that records nothing.
func Noop() *Recorder {
	r, _ := New(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	return r
}

// Resolution records one successful resolution of name.
func (r *Recorder) Resolution(ctx context.Context, name, policy string, cached bool) {
	r.resolutions.Add(ctx, 1, metric.WithAttributes(
		AttrName.String(name),
		AttrPolicy.String(policy),
		AttrCached.Bool(cached),
	))
}

// Factory starts a span for a factory invocation. The returned function ends
// it and records the outcome.
func (r *Recorder) Factory(ctx context.Context, name, policy string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{
		AttrName.String(name),
		AttrPolicy.String(policy),
	}

	ctx, span := r.tracer.Start(ctx, SpanFactory, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		r.factoryCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
		r.factoryDuration.Record(ctx, elapsed, metric.WithAttributes(attrs...))
		if err != nil {
			r.factoryErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
