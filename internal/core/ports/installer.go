package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks

// Installer is the installation collaborator. It materializes ordered
// operations into an environment prefix.
type Installer interface {
	// Apply executes the operations against the prefix in order. It
	// returns the operations that completed; on failure err wraps
	// domain.ErrPartialInstall and completed covers the prefix of ops that
	// succeeded.
	Apply(ctx context.Context, ops []domain.Operation, prefix string) (completed []domain.Operation, err error)
}
