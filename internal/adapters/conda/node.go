package conda

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the binary solver Graft node.
const NodeID graft.ID = "adapter.binary_solver"

func init() {
	graft.Register(graft.Node[ports.BinarySolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BinarySolver, error) {
			return NewSolver(), nil
		},
	})
}
