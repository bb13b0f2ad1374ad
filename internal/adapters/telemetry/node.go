package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/core/ports"
)

// NodeID is the unique identifier for the Telemetry adapter Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer("zr"), nil
		},
	})
}
