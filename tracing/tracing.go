// Package tracing provides the OpenTelemetry span helpers used around every
// action invocation, plus an optional SDK provider bootstrap. Without an
// installed tracer provider the helpers still yield usable trace identifiers,
// so the error and response contracts hold in untraced processes.
package tracing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/hupe1980/actionkit"

// Tracer returns the tracer for the actionkit instrumentation scope.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// Start opens an internal span named after the action being invoked.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// TraceID returns the span's trace identifier. When no SDK is installed the
// noop tracer yields an all-zero trace id; a random identifier is generated
// instead so callers always receive a non-empty, correlatable value.
func TraceID(span trace.Span) string {
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
