package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// JaegerConfig controls where cache spans are shipped and how they are
// sampled. The zero value is not usable; InitJaeger fills in defaults
// suitable for local development.
type JaegerConfig struct {
	ServiceName       string
	ServiceVersion    string
	Environment       string
	AgentEndpoint     string
	CollectorEndpoint string
	SamplingRate      float64
	ExtraAttributes   map[string]string
}

// JaegerOption adjusts the exporter configuration
type JaegerOption func(*JaegerConfig)

// WithServiceName sets the service name spans are reported under
func WithServiceName(name string) JaegerOption {
	return func(c *JaegerConfig) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version resource attribute
func WithServiceVersion(version string) JaegerOption {
	return func(c *JaegerConfig) {
		c.ServiceVersion = version
	}
}

// WithEnvironment sets the deployment environment resource attribute
func WithEnvironment(env string) JaegerOption {
	return func(c *JaegerConfig) {
		c.Environment = env
	}
}

// WithAgentEndpoint points the exporter at a Jaeger agent (UDP)
func WithAgentEndpoint(endpoint string) JaegerOption {
	return func(c *JaegerConfig) {
		c.AgentEndpoint = endpoint
	}
}

// WithCollectorEndpoint points the exporter at a Jaeger collector
// (HTTP). Takes precedence over the agent endpoint when both are set.
func WithCollectorEndpoint(endpoint string) JaegerOption {
	return func(c *JaegerConfig) {
		c.CollectorEndpoint = endpoint
	}
}

// WithSamplingRate sets the fraction of traces to keep, 0.0 to 1.0.
// Cache operations are high-volume; production deployments usually
// sample well below 1.0.
func WithSamplingRate(rate float64) JaegerOption {
	return func(c *JaegerConfig) {
		c.SamplingRate = rate
	}
}

// WithAttribute adds an extra resource attribute to every span
func WithAttribute(key, value string) JaegerOption {
	return func(c *JaegerConfig) {
		if c.ExtraAttributes == nil {
			c.ExtraAttributes = make(map[string]string)
		}
		c.ExtraAttributes[key] = value
	}
}

// InitJaeger builds a Jaeger-backed tracer provider and installs it
// globally, so TracedBackend spans flow to it without further wiring.
// Callers own the returned provider and should drain it with Shutdown
// on exit.
func InitJaeger(opts ...JaegerOption) (*sdktrace.TracerProvider, error) {
	config := &JaegerConfig{
		ServiceName:    "railcache",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		AgentEndpoint:  "localhost:6831",
		SamplingRate:   1.0,
	}
	for _, opt := range opts {
		opt(config)
	}

	exporter, err := newExporter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := newResource(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(config.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	// W3C Trace Context plus Baggage, so spans emitted around cache
	// calls join the caller's trace when one is in flight.
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return tp, nil
}

// newExporter picks the collector transport when configured, falling
// back to the UDP agent otherwise.
func newExporter(config *JaegerConfig) (*jaeger.Exporter, error) {
	if config.CollectorEndpoint != "" {
		return jaeger.New(
			jaeger.WithCollectorEndpoint(
				jaeger.WithEndpoint(config.CollectorEndpoint),
			),
		)
	}
	return jaeger.New(
		jaeger.WithAgentEndpoint(
			jaeger.WithAgentHost(config.AgentEndpoint),
		),
	)
}

// newResource describes the process emitting cache spans
func newResource(config *JaegerConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
	}
	for key, value := range config.ExtraAttributes {
		attrs = append(attrs, attribute.String(key, value))
	}

	return resource.New(
		context.Background(),
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
	)
}

func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown drains pending spans and stops the provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// ForceFlush exports pending spans without stopping the provider
func ForceFlush(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.ForceFlush(ctx)
}
