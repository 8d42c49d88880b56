package syncer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/envstate"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/installer" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the sync driver Graft node.
const NodeID graft.ID = "engine.syncer"

func init() {
	graft.Register(graft.Node[*Driver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			envstate.NodeID,
			installer.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Driver, error) {
			states, err := graft.Dep[ports.EnvStateStore](ctx)
			if err != nil {
				return nil, err
			}

			install, err := graft.Dep[ports.Installer](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewDriver(states, install, tracer, log), nil
		},
	})
}
