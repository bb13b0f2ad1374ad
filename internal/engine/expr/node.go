package expr

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/core/ports"
)

// NodeID is the unique identifier for the Expression Engine Graft node.
const NodeID graft.ID = "engine.expr"

func init() {
	graft.Register(graft.Node[ports.ExpressionEvaluator]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ExpressionEvaluator, error) {
			return NewEvaluator(), nil
		},
	})
}
