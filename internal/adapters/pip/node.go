package pip

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the language resolver Graft node.
const NodeID graft.ID = "adapter.language_resolver"

func init() {
	graft.Register(graft.Node[ports.LanguageResolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LanguageResolver, error) {
			return NewResolver(), nil
		},
	})
}
