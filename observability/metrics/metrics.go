// Package metrics exports service metrics over OTLP. A nil *Recorder
// is a no-op, so callers never have to guard on whether metrics are
// configured.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

type Recorder struct {
	meterProvider *sdkmetric.MeterProvider

	eventsTriggered metric.Int64Counter
	published       metric.Int64Counter
	requestDuration metric.Float64Histogram
}

type config struct {
	serviceName    string
	serviceVersion string
	environment    string
	otlpEndpoint   string
	otlpGRPC       bool
}

type Option func(*config)

func WithServiceName(name string) Option {
	return func(c *config) {
		c.serviceName = name
	}
}

func WithServiceVersion(version string) Option {
	return func(c *config) {
		c.serviceVersion = version
	}
}

func WithEnvironment(env string) Option {
	return func(c *config) {
		c.environment = env
	}
}

// WithOTLPEndpoint sets the collector endpoint. An empty endpoint
// disables metrics entirely (NewRecorder returns nil).
func WithOTLPEndpoint(endpoint string) Option {
	return func(c *config) {
		c.otlpEndpoint = endpoint
	}
}

func WithOTLPGRPC() Option {
	return func(c *config) {
		c.otlpGRPC = true
	}
}

func NewRecorder(ctx context.Context, opts ...Option) (*Recorder, func(), error) {
	cfg := &config{
		serviceName:    "events-handler",
		serviceVersion: "1.0.0",
		environment:    "development",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.otlpEndpoint == "" {
		return nil, func() {}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
			semconv.DeploymentEnvironment(cfg.environment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	if cfg.otlpGRPC {
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.otlpEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	} else {
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.otlpEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(10*time.Second),
		)),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(cfg.serviceName)

	r := &Recorder{meterProvider: meterProvider}
	if r.eventsTriggered, err = meter.Int64Counter("events_triggered_total",
		metric.WithDescription("Events accepted by the trigger endpoint"),
	); err != nil {
		return nil, nil, err
	}
	if r.published, err = meter.Int64Counter("messages_published_total",
		metric.WithDescription("Messages published to the provider"),
	); err != nil {
		return nil, nil, err
	}
	if r.requestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, nil, err
	}

	return r, func() {
		_ = meterProvider.Shutdown(context.Background())
	}, nil
}

func (r *Recorder) EventTriggered(ctx context.Context, eventName string, topicCreated bool) {
	if r == nil {
		return
	}
	r.eventsTriggered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_name", eventName),
		attribute.Bool("topic_created", topicCreated),
	))
}

func (r *Recorder) MessagePublished(ctx context.Context, topicID string) {
	if r == nil {
		return
	}
	r.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic_id", topicID),
	))
}

func (r *Recorder) RequestObserved(ctx context.Context, method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.meterProvider.Shutdown(ctx)
}
