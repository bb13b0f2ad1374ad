package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/adapters/telemetry"
	"zr/internal/core/ports"
)

func TestOTelTracer_StartEnd(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test")

	ctx, end := tracer.Start(t.Context(), "task.build")
	require.NotNil(t, ctx)
	require.NotNil(t, end)

	assert.NotPanics(t, end)
}

func TestOTelTracer_Close(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test")

	err := tracer.Close(t.Context())
	assert.NoError(t, err)
}

func TestOTelTracer_ImplementsPort(t *testing.T) {
	var _ ports.Tracer = telemetry.NewOTelTracer("test")
}

func TestOTelTracer_NestedSpans(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test")

	ctx, endOuter := tracer.Start(t.Context(), "graph.execute")
	defer endOuter()

	innerCtx, endInner := tracer.Start(ctx, "task.run")
	defer endInner()

	assert.NotNil(t, innerCtx)
}
