package envstate

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the installed-state store Graft node.
const NodeID graft.ID = "adapter.envstate_store"

func init() {
	graft.Register(graft.Node[ports.EnvStateStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.EnvStateStore, error) {
			return NewStore(), nil
		},
	})
}
