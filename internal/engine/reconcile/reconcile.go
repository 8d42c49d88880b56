// Package reconcile merges the binary- and language-ecosystem solver
// results for one (environment, platform) pair into a single consistent
// resolved record.
package reconcile

import (
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// ConflictKind classifies a reconciliation conflict.
type ConflictKind string

const (
	// KindMissingNative marks a language package that requires a native
	// capability the binary record does not provide.
	KindMissingNative ConflictKind = "unresolved-cross-dependency"
)

// Conflict reports one incompatibility between the two ecosystems. It is
// surfaced to the caller rather than fatal: other pairs, and the rest of
// this pair's record, remain usable.
type Conflict struct {
	Kind ConflictKind

	// Package is the language package whose requirement is unmet.
	Package domain.Package

	// Requirement is the missing native capability name.
	Requirement string
}

// Merge combines a binary result and a language result into one record.
//
// Rules, applied in order:
//   - both inputs keep their own ecosystem namespace; a duplicate
//     normalized name within one ecosystem invalidates the record;
//   - a language package whose normalized name is already provided by a
//     binary package is elided with provenance "shadowed-by-binary",
//     unless the manifest explicitly excludes the name from shadowing
//     (binary wins by default, override only via exclusion);
//   - a materialized language package requiring a native capability that
//     no binary package provides yields a Conflict.
//
// Merge is deterministic: the same inputs always produce the same record
// and the same conflict set, regardless of input order.
func Merge(binary, language []domain.Package, exclusions map[string]bool) (domain.ResolvedRecord, []Conflict, error) {
	record := domain.ResolvedRecord{
		Packages: make([]domain.Package, 0, len(binary)+len(language)),
	}

	binaryNames := make(map[string]bool, len(binary))
	for _, pkg := range binary {
		pkg.Provenance = domain.ProvenanceBinary
		binaryNames[pkg.Key().Name] = true
		record.Packages = append(record.Packages, pkg)
	}

	var conflicts []Conflict
	for _, pkg := range language {
		name := pkg.Key().Name
		if binaryNames[name] && !exclusions[name] {
			pkg.Provenance = domain.ProvenanceShadowed
			record.Packages = append(record.Packages, pkg)
			continue
		}

		pkg.Provenance = domain.ProvenanceLanguage
		for _, req := range pkg.Requires {
			if !binaryNames[domain.NormalizeName(req)] {
				conflicts = append(conflicts, Conflict{
					Kind:        KindMissingNative,
					Package:     pkg,
					Requirement: req,
				})
			}
		}
		record.Packages = append(record.Packages, pkg)
	}

	record.Sort()
	slices.SortFunc(conflicts, compareConflicts)

	if err := record.Validate(); err != nil {
		return domain.ResolvedRecord{}, nil, zerr.Wrap(err, "reconciled record is invalid")
	}
	return record, conflicts, nil
}

func compareConflicts(a, b Conflict) int {
	if c := domain.ComparePackages(a.Package, b.Package); c != 0 {
		return c
	}
	switch {
	case a.Requirement < b.Requirement:
		return -1
	case a.Requirement > b.Requirement:
		return 1
	default:
		return 0
	}
}
