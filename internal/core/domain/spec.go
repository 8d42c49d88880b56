// Package domain contains the core domain models for the lockfile
// resolution and synchronization engine: the workspace manifest, resolved
// records, the lockfile, and the structural diff between them.
package domain

// Ecosystem identifies which of the two package universes a spec or
// package belongs to. The set is closed: merge rules are specific to the
// binary/language pair and are applied only by the reconciler.
type Ecosystem string

const (
	// EcosystemBinary is the binary-package ecosystem (channel-based,
	// platform-specific builds).
	EcosystemBinary Ecosystem = "binary"

	// EcosystemLanguage is the language-package ecosystem (index-based,
	// resolved against an interpreter provided by the binary ecosystem).
	EcosystemLanguage Ecosystem = "language"
)

// Spec represents a user-declared dependency requirement before resolution.
// It is immutable once parsed for a given manifest revision.
type Spec struct {
	// Ecosystem tags which solver is responsible for this spec.
	Ecosystem Ecosystem

	// Name is the package name as declared by the user.
	Name InternedString

	// Constraint is the version constraint (e.g. ">=3.10", "1.2.*").
	// Empty means any version.
	Constraint string

	// Build is an optional build-string constraint (binary ecosystem only).
	Build string

	// Channel is an optional per-spec source override.
	Channel string
}

// SpecKey is the identity of a spec or package within a record:
// ecosystem plus normalized name.
type SpecKey struct {
	Ecosystem Ecosystem
	Name      string
}

// Key returns the identity key of the spec.
func (s Spec) Key() SpecKey {
	return SpecKey{Ecosystem: s.Ecosystem, Name: NormalizeName(s.Name.String())}
}
