package installer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/envstate"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the installer Graft node.
const NodeID graft.ID = "adapter.installer"

func init() {
	graft.Register(graft.Node[ports.Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{envstate.NodeID},
		Run: func(ctx context.Context) (ports.Installer, error) {
			states, err := graft.Dep[ports.EnvStateStore](ctx)
			if err != nil {
				return nil, err
			}
			return New(domain.DefaultPackageCachePath("."), states), nil
		},
	})
}
