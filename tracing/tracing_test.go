package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestStart_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := Start(context.Background(), "myAction", attribute.String("actionkit.kind", "flow"))
	traceID := TraceID(span)
	span.End()

	assert.NotNil(t, ctx)
	require.Len(t, recorder.Ended(), 1)

	ended := recorder.Ended()[0]
	assert.Equal(t, "myAction", ended.Name())
	assert.Equal(t, ended.SpanContext().TraceID().String(), traceID)
}

func TestTraceID_FallsBackWithoutSDK(t *testing.T) {
	_, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "op")

	// The noop tracer yields an all-zero trace id; callers must still get a
	// usable identifier.
	id := TraceID(span)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "00000000000000000000000000000000", id)
}

func TestNewProvider(t *testing.T) {
	var buf bytes.Buffer

	cfg := DefaultConfig()
	cfg.Writer = &buf
	cfg.ServiceVersion = "0.0.1"

	prev := otel.GetTracerProvider()
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "exported")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "exported")
}
