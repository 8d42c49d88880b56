package ports

import "go.trai.ch/kiln/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=envstate.go -destination=mocks/mock_envstate.go -package=mocks

// EnvStateStore reads and writes the installed-state document of an
// environment prefix. The synchronization driver compares it against the
// locked record to compute operations and to verify a sync.
type EnvStateStore interface {
	// Read returns the installed state for the prefix. A prefix that was
	// never synchronized yields an empty state, not an error.
	Read(prefix string) (*domain.InstalledState, error)

	// Write replaces the installed state for the prefix.
	Write(prefix string, state *domain.InstalledState) error
}
