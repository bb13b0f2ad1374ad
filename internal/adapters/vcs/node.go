package vcs

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/core/ports"
)

// NodeID is the unique identifier for the VCS adapter Graft node.
const NodeID graft.ID = "adapter.vcs"

func init() {
	graft.Register(graft.Node[ports.VcsBridge]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.VcsBridge, error) {
			return NewGitBridge(), nil
		},
	})
}
