// Package observability provides OpenTelemetry tracing and metrics for publishhub
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/publishhub/pkg/config"
)

// Provider wires publish operations into OpenTelemetry
type Provider struct {
	config        *config.TelemetryConfig
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	// Metrics
	publishTotal    metric.Int64Counter
	publishFailed   metric.Int64Counter
	publishDuration metric.Float64Histogram
	scheduledTasks  metric.Int64UpDownCounter
}

// NewProvider creates a telemetry provider. A nil or disabled config yields
// a no-op provider that is safe to call everywhere.
func NewProvider(cfg *config.TelemetryConfig) (*Provider, error) {
	if cfg == nil {
		cfg = &config.TelemetryConfig{}
	}

	p := &Provider{config: cfg}

	if !cfg.Enabled {
		p.tracer = otel.Tracer("publishhub")
		p.meter = otel.Meter("publishhub")
		return p, nil
	}

	if err := p.initTracing(); err != nil {
		return nil, fmt.Errorf("init tracing: %v", err)
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %v", err)
	}

	return p, nil
}

// initTracing initializes OpenTelemetry tracing
func (p *Provider) initTracing() error {
	serviceName := p.config.ServiceName
	if serviceName == "" {
		serviceName = "publishhub"
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %v", err)
	}

	clientOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(p.config.Endpoint),
	}
	if p.config.Insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(clientOpts...),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %v", err)
	}

	p.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(p.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	p.tracer = otel.Tracer("publishhub",
		trace.WithSchemaURL(semconv.SchemaURL),
	)

	return nil
}

// initMetrics initializes OpenTelemetry metrics
func (p *Provider) initMetrics() error {
	p.meter = otel.Meter("publishhub",
		metric.WithSchemaURL(semconv.SchemaURL),
	)

	var err error

	p.publishTotal, err = p.meter.Int64Counter(
		"publishhub_publish_total",
		metric.WithDescription("Total number of publish attempts"),
	)
	if err != nil {
		return fmt.Errorf("create publish_total counter: %v", err)
	}

	p.publishFailed, err = p.meter.Int64Counter(
		"publishhub_publish_failed_total",
		metric.WithDescription("Total number of failed publish attempts"),
	)
	if err != nil {
		return fmt.Errorf("create publish_failed counter: %v", err)
	}

	p.publishDuration, err = p.meter.Float64Histogram(
		"publishhub_publish_duration_seconds",
		metric.WithDescription("Duration of publish operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create publish_duration histogram: %v", err)
	}

	p.scheduledTasks, err = p.meter.Int64UpDownCounter(
		"publishhub_scheduled_tasks",
		metric.WithDescription("Number of scheduled tasks awaiting publication"),
	)
	if err != nil {
		return fmt.Errorf("create scheduled_tasks counter: %v", err)
	}

	return nil
}

// TraceOperation creates a new span for an operation
func (p *Provider) TraceOperation(ctx context.Context, operationName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if p.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return p.tracer.Start(ctx, operationName,
		trace.WithAttributes(attributes...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// TracePublish creates a span for one platform publish
func (p *Provider) TracePublish(ctx context.Context, platform string, contentType string) (context.Context, trace.Span) {
	attributes := []attribute.KeyValue{
		attribute.String("publishhub.platform", platform),
		attribute.String("publishhub.content.type", contentType),
		attribute.String("publishhub.operation", "publish"),
	}

	return p.TraceOperation(ctx, "publishhub.publish", attributes...)
}

// RecordPublish records a successful publish
func (p *Provider) RecordPublish(ctx context.Context, platform string, duration time.Duration) {
	if p.publishTotal != nil {
		p.publishTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("status", "success"),
		))
	}

	if p.publishDuration != nil {
		p.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("status", "success"),
		))
	}
}

// RecordPublishFailed records a failed publish
func (p *Provider) RecordPublishFailed(ctx context.Context, platform string, duration time.Duration, errorCode string) {
	if p.publishTotal != nil {
		p.publishTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("status", "error"),
		))
	}

	if p.publishFailed != nil {
		p.publishFailed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("error_code", errorCode),
		))
	}

	if p.publishDuration != nil {
		p.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("platform", platform),
			attribute.String("status", "error"),
		))
	}
}

// AddScheduledTasks moves the scheduled-task gauge by delta
func (p *Provider) AddScheduledTasks(ctx context.Context, delta int64) {
	if p.scheduledTasks != nil {
		p.scheduledTasks.Add(ctx, delta)
	}
}

// SetSpanError sets an error on the current span
func (p *Provider) SetSpanError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks the span as successful
func (p *Provider) SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// Shutdown gracefully shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.traceProvider != nil {
		return p.traceProvider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the tracer instance
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Meter returns the meter instance
func (p *Provider) Meter() metric.Meter {
	return p.meter
}
