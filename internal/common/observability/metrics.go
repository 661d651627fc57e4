package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"venue-recommender/internal/common/logger"
)

// Observability owns the OTel meter and tracer used by the pipeline.
// A zero value is safe to use and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracing        *Tracing
	tracer         trace.Tracer
	requests       otelmetric.Int64Counter
	duration       otelmetric.Float64Histogram
	completions    otelmetric.Int64Counter
	candidateCount otelmetric.Int64Histogram
}

// New wires an OTel meter provider onto a Prometheus exporter registered
// with reg (the default registerer when nil).
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{tracer: otel.Tracer(serviceName)}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	requests, _ := meter.Int64Counter(
		"recommendation.requests",
		otelmetric.WithDescription("Recommendation requests processed"),
	)
	duration, _ := meter.Float64Histogram(
		"recommendation.duration",
		otelmetric.WithDescription("Recommendation processing duration"),
		otelmetric.WithUnit("ms"),
	)
	completions, _ := meter.Int64Counter(
		"genai.completions",
		otelmetric.WithDescription("Text completion calls"),
	)
	candidateCount, _ := meter.Int64Histogram(
		"recommendation.candidates",
		otelmetric.WithDescription("Candidates retrieved per request"),
	)

	return &Observability{
		meterProvider:  provider,
		tracer:         otel.Tracer(serviceName),
		requests:       requests,
		duration:       duration,
		completions:    completions,
		candidateCount: candidateCount,
	}
}

// WithTracing attaches a tracer provider; spans go to it from now on.
func (o *Observability) WithTracing(t *Tracing, serviceName string) *Observability {
	o.tracing = t
	if t != nil && t.provider != nil {
		o.tracer = t.provider.Tracer(serviceName)
	}
	return o
}

// StartSpan starts a span named name under ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("venue-recommender")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordRecommendation(ctx context.Context, duration time.Duration, fallback bool, candidates int) {
	attrs := otelmetric.WithAttributes(attribute.Bool("fallback", fallback))
	if o.requests != nil {
		o.requests.Add(ctx, 1, attrs)
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
	if o.candidateCount != nil {
		o.candidateCount.Record(ctx, int64(candidates))
	}
}

func (o *Observability) RecordCompletion(ctx context.Context, operation, outcome string) {
	if o.completions != nil {
		o.completions.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracing != nil {
		_ = o.tracing.Shutdown(ctx)
	}
}
