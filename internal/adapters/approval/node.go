package approval

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/core/ports"
)

// NodeID is the unique identifier for the approval gate Graft node.
const NodeID graft.ID = "adapter.approval"

func init() {
	graft.Register(graft.Node[ports.ApprovalGate]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ApprovalGate, error) {
			return New(), nil
		},
	})
}
