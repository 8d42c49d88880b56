package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Provenance tags which solver produced a package, or why it will not be
// materialized.
type Provenance string

const (
	// ProvenanceBinary marks a package produced by the binary solver.
	ProvenanceBinary Provenance = "binary"

	// ProvenanceLanguage marks a package produced by the language resolver.
	ProvenanceLanguage Provenance = "language"

	// ProvenanceShadowed marks a language package elided because an
	// equivalent binary package already satisfies it. Shadowed packages
	// stay in the record for review but are never installed.
	ProvenanceShadowed Provenance = "shadowed-by-binary"
)

// Package is one exactly pinned, solver-produced package.
type Package struct {
	Ecosystem Ecosystem

	// Name is the canonical package name as the solver reported it.
	Name InternedString

	// Version is the exact resolved version.
	Version string

	// Build is the build/variant identifier (binary ecosystem) or wheel
	// tag (language ecosystem). May be empty.
	Build string

	// Hash is the sha256 hex digest of the package content.
	Hash string

	// Source is the locator the package was resolved from (channel URL or
	// index URL).
	Source string

	// Provenance indicates which solver produced the package.
	Provenance Provenance

	// Requires lists native capabilities the package needs from the
	// sibling ecosystem (language ecosystem only).
	Requires []string
}

// Key returns the package identity within a record.
func (p Package) Key() SpecKey {
	return SpecKey{Ecosystem: p.Ecosystem, Name: NormalizeName(p.Name.String())}
}

// Materialized reports whether the package is actually installed when the
// record is synchronized.
func (p Package) Materialized() bool {
	return p.Provenance != ProvenanceShadowed
}

// samePin reports whether two packages pin the same artifact.
func (p Package) samePin(other Package) bool {
	return p.Version == other.Version && p.Build == other.Build && p.Hash == other.Hash
}

// ResolvedRecord is the exact package set for one (environment, platform)
// pair, ordered by (ecosystem, normalized name).
type ResolvedRecord struct {
	Packages []Package
}

// Validate enforces the record invariant: no two packages share a
// normalized name within the same ecosystem.
func (r *ResolvedRecord) Validate() error {
	seen := make(map[SpecKey]bool, len(r.Packages))
	for _, pkg := range r.Packages {
		key := pkg.Key()
		if seen[key] {
			err := zerr.With(ErrDuplicatePackage, "ecosystem", string(key.Ecosystem))
			return zerr.With(err, "package", key.Name)
		}
		seen[key] = true
	}
	return nil
}

// Find returns the package with the given key, if present.
func (r *ResolvedRecord) Find(key SpecKey) (Package, bool) {
	for _, pkg := range r.Packages {
		if pkg.Key() == key {
			return pkg, true
		}
	}
	return Package{}, false
}

// Materialized returns the packages that are installed on sync, excluding
// shadowed entries.
func (r *ResolvedRecord) Materialized() []Package {
	out := make([]Package, 0, len(r.Packages))
	for _, pkg := range r.Packages {
		if pkg.Materialized() {
			out = append(out, pkg)
		}
	}
	return out
}

// Sort orders the record's packages by (ecosystem, normalized name) so a
// record's serialized form is independent of solver output order.
func (r *ResolvedRecord) Sort() {
	slices.SortFunc(r.Packages, ComparePackages)
}

// Equal reports whether two records pin the same package set.
func (r *ResolvedRecord) Equal(other *ResolvedRecord) bool {
	if len(r.Packages) != len(other.Packages) {
		return false
	}
	for i, pkg := range r.Packages {
		o := other.Packages[i]
		if pkg.Key() != o.Key() || !pkg.samePin(o) || pkg.Provenance != o.Provenance {
			return false
		}
	}
	return true
}

// ComparePackages orders packages by ecosystem, then normalized name.
func ComparePackages(a, b Package) int {
	ka, kb := a.Key(), b.Key()
	if ka.Ecosystem != kb.Ecosystem {
		if ka.Ecosystem == EcosystemBinary {
			return -1
		}
		return 1
	}
	switch {
	case ka.Name < kb.Name:
		return -1
	case ka.Name > kb.Name:
		return 1
	default:
		return 0
	}
}

// InterpreterContext carries the binary-ecosystem result into the language
// resolver: the language ecosystem resolves against the interpreter the
// binary solver selected.
type InterpreterContext struct {
	// Version is the interpreter version pinned by the binary result.
	Version string

	// Platform is the resolution target.
	Platform Platform

	// Packages is the full binary record, available to the resolver as
	// constraint context.
	Packages []Package
}

// InterpreterName is the normalized binary package name that provides the
// language interpreter.
const InterpreterName = "python"

// NewInterpreterContext extracts the interpreter from a binary result.
// It fails when language specs exist but no interpreter package does.
func NewInterpreterContext(platform Platform, binary []Package) (InterpreterContext, error) {
	for _, pkg := range binary {
		if pkg.Key().Name == InterpreterName {
			return InterpreterContext{
				Version:  pkg.Version,
				Platform: platform,
				Packages: binary,
			}, nil
		}
	}
	return InterpreterContext{}, zerr.With(ErrMissingInterpreter, "platform", string(platform))
}
