package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	assignmentCounter  otelmetric.Int64Counter
	assignmentDuration otelmetric.Float64Histogram
}

func New(serviceName, jaegerEndpoint string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	obs := &Observability{
		meterProvider: provider,
		meter:         provider.Meter(serviceName),
	}

	if jaegerEndpoint != "" {
		traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
			otel.SetTracerProvider(tp)
			obs.tracerProvider = tp
		}
	}
	obs.tracer = otel.Tracer(serviceName)

	obs.assignmentCounter, _ = obs.meter.Int64Counter(
		"assignments.processed",
		otelmetric.WithDescription("Number of assignment attempts processed"),
	)

	obs.assignmentDuration, _ = obs.meter.Float64Histogram(
		"assignments.duration",
		otelmetric.WithDescription("Assignment path duration"),
		otelmetric.WithUnit("ms"),
	)

	return obs
}

// NewNoop returns an Observability that records nothing. Used in tests.
func NewNoop() *Observability {
	return &Observability{}
}

// StartSpan begins a span on the engine tracer. Returns the input context
// unchanged when tracing is not configured.
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name)
}

func (o *Observability) RecordAssignment(ctx context.Context, status string) {
	if o.assignmentCounter != nil {
		o.assignmentCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordAssignmentDuration(ctx context.Context, duration time.Duration, status string) {
	if o.assignmentDuration != nil {
		o.assignmentDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
}
