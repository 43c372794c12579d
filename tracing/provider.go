package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures the SDK trace provider installed by NewProvider.
type Config struct {
	// ServiceName identifies the process in exported spans.
	ServiceName string
	// ServiceVersion is attached to the resource.
	ServiceVersion string
	// SampleRate in [0,1]; 1 samples everything, 0 nothing.
	SampleRate float64
	// Writer receives exported spans (defaults to os.Stdout).
	Writer io.Writer
	// PrettyPrint renders exported spans as indented JSON.
	PrettyPrint bool
}

// DefaultConfig returns an always-sampling stdout configuration suitable for
// development and samples.
func DefaultConfig() Config {
	return Config{
		ServiceName: "actionkit",
		SampleRate:  1.0,
		Writer:      os.Stdout,
	}
}

// Provider owns an installed SDK tracer provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider builds a span-exporting tracer provider from cfg and installs
// it as the global OpenTelemetry provider. Processes that skip this bootstrap
// still work; they just get generated trace ids instead of recorded spans.
func NewProvider(cfg Config) (*Provider, error) {
	var expOpts []stdouttrace.Option
	if cfg.Writer != nil {
		expOpts = append(expOpts, stdouttrace.WithWriter(cfg.Writer))
	}
	if cfg.PrettyPrint {
		expOpts = append(expOpts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(expOpts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}

	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and releases the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
