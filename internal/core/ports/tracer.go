package ports

import "context"

// Tracer defines the interface for ambient tracing spans around
// scheduler/workflow/cache operations.
//
//go:generate go run go.uber.org/mock/mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start begins a span named name and returns a context carrying it plus
	// a function to end it.
	Start(ctx context.Context, name string) (context.Context, func())

	// Close flushes and shuts down the underlying tracer provider.
	Close(ctx context.Context) error
}
