package telemetry

import "context"

// NoOpTracer is a no-op implementation of ports.Tracer, used when tracing
// is disabled or in tests that don't care about spans.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx unchanged and a no-op end function.
func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}

// Close does nothing.
func (t *NoOpTracer) Close(_ context.Context) error {
	return nil
}
