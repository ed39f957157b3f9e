package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/railcache/railcache/chaos"
	"github.com/railcache/railcache/pkg/backend"
)

// newRecorded installs an in-memory span recorder as the global tracer
// provider and returns a traced in-memory backend plus the recorder.
func newRecorded(t *testing.T) (*TracedBackend, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	mem := backend.NewMemoryBackend(nil)
	t.Cleanup(func() { mem.Close() })

	return Wrap(mem), recorder
}

func TestTracedBackend_SpanPerOperation(t *testing.T) {
	b, recorder := newRecorded(t)
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "trainset:TS-042", []byte(`{"capacity":8}`), time.Minute))

	_, found, err := b.Get(ctx, "trainset:TS-042")
	require.NoError(t, err)
	require.True(t, found)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "cache.set", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("cache.key", "trainset:TS-042"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("cache.ttl_ms", 60000))

	assert.Equal(t, "cache.get", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("cache.hit", true))
}

func TestTracedBackend_MissIsNotAnErrorSpan(t *testing.T) {
	b, recorder := newRecorded(t)

	_, found, err := b.Get(context.Background(), "trainset:TS-404")
	require.NoError(t, err)
	require.False(t, found)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	assert.Contains(t, spans[0].Attributes(), attribute.Bool("cache.hit", false))
	assert.NotEqual(t, codes.Error, spans[0].Status().Code, "A miss is a normal outcome, not a span error")
}

func TestTracedBackend_BackendErrorRecordedOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	mem := backend.NewMemoryBackend(nil)
	t.Cleanup(func() { mem.Close() })
	b := Wrap(chaos.Partitioned(mem))

	err := b.Ping(context.Background())
	require.ErrorIs(t, err, backend.ErrUnavailable)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cache.ping", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracingMiddlewareShape(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	mem := backend.NewMemoryBackend(nil)
	t.Cleanup(func() { mem.Close() })

	wrapped := Middleware()(mem)
	_, ok := wrapped.(*TracedBackend)
	require.True(t, ok)

	require.NoError(t, wrapped.Delete(context.Background(), "k"))
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "cache.delete", recorder.Ended()[0].Name())
}
