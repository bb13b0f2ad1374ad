// Package telemetry implements ports.Tracer using OpenTelemetry, providing
// spans around graph execution, scheduling, and cache lookups.
package telemetry

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"zr/internal/core/ports"
)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
// Spans are recorded by an in-process TracerProvider; no exporter is wired
// by default, so span data is available to anything that reads the SDK's
// in-memory span snapshots but is not shipped off-process.
func NewOTelTracer(name string) *OTelTracer {
	provider := sdktrace.NewTracerProvider()
	return &OTelTracer{
		provider: provider,
		tracer:   provider.Tracer(name),
	}
}

// Start begins a span named name and returns a context carrying it plus a
// function to end it.
func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, span.End
}

// Close flushes and shuts down the underlying tracer provider.
func (t *OTelTracer) Close(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

var _ ports.Tracer = (*OTelTracer)(nil)
