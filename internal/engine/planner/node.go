package planner

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/conda"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/metadata"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/pip"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			conda.NodeID,
			pip.NodeID,
			metadata.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			binary, err := graft.Dep[ports.BinarySolver](ctx)
			if err != nil {
				return nil, err
			}

			language, err := graft.Dep[ports.LanguageResolver](ctx)
			if err != nil {
				return nil, err
			}

			source, err := graft.Dep[ports.MetadataSource](ctx)
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

			return NewResolver(binary, language, source, tracer, log), nil
		},
	})
}
