package ports

import "go.trai.ch/kiln/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=lockfile_store.go -destination=mocks/mock_lockfile_store.go -package=mocks

// LockfileStore persists the lockfile. Save must replace the file
// atomically and serialize identical state to byte-identical output.
type LockfileStore interface {
	// Load reads the lockfile. A missing file yields an empty lockfile,
	// not an error.
	Load() (*domain.Lockfile, error)

	// Save writes the lockfile with an atomic replace.
	Save(lockfile *domain.Lockfile) error
}
