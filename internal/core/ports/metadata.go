package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=metadata.go -destination=mocks/mock_metadata.go -package=mocks

// MetadataSource fetches the package index for one (source, platform)
// pair. Fetches are idempotent and cacheable; the caching implementation
// guarantees that concurrent requests for the same pair trigger exactly
// one upstream fetch.
type MetadataSource interface {
	Fetch(ctx context.Context, source string, platform domain.Platform) (*domain.PackageIndex, error)
}
