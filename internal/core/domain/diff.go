package domain

import "slices"

// Change pairs the old and new pin of a package whose key exists in both
// records but whose version, build or hash differs.
type Change struct {
	Old Package
	New Package
}

// Diff is the partitioned difference between two package sets, keyed by
// (ecosystem, normalized name). It is computed per pair and never
// persisted.
type Diff struct {
	Added   []Package
	Removed []Package
	Changed []Change
}

// Empty reports whether the two sets pin identical packages.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Count returns the total number of differing packages.
func (d Diff) Count() int {
	return len(d.Added) + len(d.Removed) + len(d.Changed)
}

// ComputeDiff diffs two resolved records, including shadowed entries, for
// lockfile change detection.
func ComputeDiff(old, updated *ResolvedRecord) Diff {
	return DiffPackages(old.Packages, updated.Packages)
}

// DiffPackages partitions two package sets into {added, removed, changed}.
// A package is changed when its key exists on both sides but the pinned
// artifact differs. Output slices are sorted by key so the diff is
// deterministic regardless of input order.
func DiffPackages(old, updated []Package) Diff {
	oldByKey := make(map[SpecKey]Package, len(old))
	for _, pkg := range old {
		oldByKey[pkg.Key()] = pkg
	}

	var d Diff
	seen := make(map[SpecKey]bool, len(updated))
	for _, pkg := range updated {
		key := pkg.Key()
		seen[key] = true
		prev, ok := oldByKey[key]
		switch {
		case !ok:
			d.Added = append(d.Added, pkg)
		case !prev.samePin(pkg):
			d.Changed = append(d.Changed, Change{Old: prev, New: pkg})
		}
	}
	for _, pkg := range old {
		if !seen[pkg.Key()] {
			d.Removed = append(d.Removed, pkg)
		}
	}

	slices.SortFunc(d.Added, ComparePackages)
	slices.SortFunc(d.Removed, ComparePackages)
	slices.SortFunc(d.Changed, func(a, b Change) int {
		return ComparePackages(a.New, b.New)
	})
	return d
}
