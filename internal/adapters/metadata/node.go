package metadata

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the metadata source Graft node.
const NodeID graft.ID = "adapter.metadata_source"

func init() {
	graft.Register(graft.Node[ports.MetadataSource]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.MetadataSource, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewCachingSource(NewHTTPSource(), domain.DefaultMetadataCachePath("."), log), nil
		},
	})
}
