// Package tracing provides OpenTelemetry span emission for cache
// backends and Jaeger exporter setup.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/railcache/railcache/pkg/backend"
)

// tracerName identifies spans emitted by the cache backend decorator
const tracerName = "github.com/railcache/railcache"

// TracedBackend wraps a backend and emits one span per operation
type TracedBackend struct {
	inner  backend.Backend
	tracer trace.Tracer
}

// Wrap decorates a backend with tracing
func Wrap(inner backend.Backend) *TracedBackend {
	return &TracedBackend{
		inner:  inner,
		tracer: otel.Tracer(tracerName),
	}
}

// Middleware returns a backend middleware that applies tracing, for use
// with the railcache middleware chain
func Middleware() func(backend.Backend) backend.Backend {
	return func(inner backend.Backend) backend.Backend {
		return Wrap(inner)
	}
}

// start opens a span for a cache operation
func (t *TracedBackend) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cache."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.operation", op),
			attribute.String("cache.key", key),
		),
	)
}

// end closes a span, recording the error if any
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Get traces a backend get
func (t *TracedBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := t.start(ctx, "get", key)
	value, found, err := t.inner.Get(ctx, key)
	span.SetAttributes(attribute.Bool("cache.hit", found))
	end(span, err)
	return value, found, err
}

// Set traces a backend set
func (t *TracedBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := t.start(ctx, "set", key)
	span.SetAttributes(attribute.Int64("cache.ttl_ms", ttl.Milliseconds()))
	err := t.inner.Set(ctx, key, value, ttl)
	end(span, err)
	return err
}

// Delete traces a backend delete
func (t *TracedBackend) Delete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "delete", key)
	err := t.inner.Delete(ctx, key)
	end(span, err)
	return err
}

// Exists traces a backend existence check
func (t *TracedBackend) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := t.start(ctx, "exists", key)
	found, err := t.inner.Exists(ctx, key)
	end(span, err)
	return found, err
}

// Increment traces a backend increment
func (t *TracedBackend) Increment(ctx context.Context, key string) (int64, error) {
	ctx, span := t.start(ctx, "increment", key)
	n, err := t.inner.Increment(ctx, key)
	end(span, err)
	return n, err
}

// Expire traces a backend TTL refresh
func (t *TracedBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, span := t.start(ctx, "expire", key)
	span.SetAttributes(attribute.Int64("cache.ttl_ms", ttl.Milliseconds()))
	err := t.inner.Expire(ctx, key, ttl)
	end(span, err)
	return err
}

// Ping traces a backend ping
func (t *TracedBackend) Ping(ctx context.Context) error {
	ctx, span := t.start(ctx, "ping", "")
	err := t.inner.Ping(ctx)
	end(span, err)
	return err
}

// Close closes the inner backend
func (t *TracedBackend) Close() error {
	return t.inner.Close()
}
