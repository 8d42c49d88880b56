// Package ports defines the collaborator contracts consumed by the engine.
package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=solver.go -destination=mocks/mock_solver.go -package=mocks

// BinarySolver is the binary-ecosystem dependency solver collaborator.
// The solving algorithm itself is out of scope; the engine only interprets
// its output.
type BinarySolver interface {
	// Solve resolves the given binary specs for one platform against the
	// configured channels. Returns domain.ErrUnsatisfiable (wrapped) when
	// no valid set exists.
	Solve(ctx context.Context, specs []domain.Spec, platform domain.Platform, channels []domain.Channel) ([]domain.Package, error)
}

// LanguageResolver is the language-ecosystem resolver collaborator. It
// resolves against the interpreter pinned by the binary result, so within
// one pair it always runs after the binary solver.
type LanguageResolver interface {
	// Resolve resolves the given language specs for one platform in the
	// context of the interpreter the binary solver selected. Returns
	// domain.ErrUnsatisfiable (wrapped) when no valid set exists.
	Resolve(ctx context.Context, specs []domain.Spec, platform domain.Platform, interp domain.InterpreterContext) ([]domain.Package, error)
}
