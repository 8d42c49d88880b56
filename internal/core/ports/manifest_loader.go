package ports

import "go.trai.ch/kiln/internal/core/domain"

// ManifestLoader defines the interface for loading the workspace manifest.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load reads the manifest from the given workspace root and returns the
	// typed manifest graph.
	Load(root string) (*domain.Manifest, error)
}
