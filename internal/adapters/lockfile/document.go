package lockfile

import (
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

// lockDocument is the serialized form of the lockfile. Explicit ordered
// slices (instead of maps) pin the byte layout of the document.
type lockDocument struct {
	Version      int           `yaml:"version"`
	Environments []envDocument `yaml:"environments"`
}

type envDocument struct {
	Name      string             `yaml:"name"`
	Platforms []pairDocument     `yaml:"platforms"`
}

type pairDocument struct {
	Platform  string            `yaml:"platform"`
	InputHash string            `yaml:"input-hash"`
	Packages  []packageDocument `yaml:"packages"`
}

type packageDocument struct {
	Ecosystem  string   `yaml:"ecosystem"`
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Build      string   `yaml:"build,omitempty"`
	Sha256     string   `yaml:"sha256,omitempty"`
	Source     string   `yaml:"source,omitempty"`
	Provenance string   `yaml:"provenance"`
	Requires   []string `yaml:"requires,omitempty"`
}

func newLockDocument(lockfile *domain.Lockfile) lockDocument {
	doc := lockDocument{Version: lockfile.Version}

	var current *envDocument
	for _, pair := range lockfile.SortedPairs() {
		if current == nil || current.Name != pair.Environment {
			doc.Environments = append(doc.Environments, envDocument{Name: pair.Environment})
			current = &doc.Environments[len(doc.Environments)-1]
		}

		entry := lockfile.Pairs[pair]
		pairDoc := pairDocument{
			Platform:  string(pair.Platform),
			InputHash: entry.InputHash,
		}
		packages := slices.Clone(entry.Record.Packages)
		slices.SortFunc(packages, domain.ComparePackages)
		for _, pkg := range packages {
			pairDoc.Packages = append(pairDoc.Packages, packageDocument{
				Ecosystem:  string(pkg.Ecosystem),
				Name:       pkg.Name.String(),
				Version:    pkg.Version,
				Build:      pkg.Build,
				Sha256:     pkg.Hash,
				Source:     pkg.Source,
				Provenance: string(pkg.Provenance),
				Requires:   pkg.Requires,
			})
		}
		current.Platforms = append(current.Platforms, pairDoc)
	}
	return doc
}

func (doc *lockDocument) toDomain() *domain.Lockfile {
	lockfile := domain.NewLockfile()
	if doc.Version != 0 {
		lockfile.Version = doc.Version
	}

	for _, env := range doc.Environments {
		for _, pairDoc := range env.Platforms {
			record := domain.ResolvedRecord{}
			for _, pkg := range pairDoc.Packages {
				record.Packages = append(record.Packages, domain.Package{
					Ecosystem:  domain.Ecosystem(pkg.Ecosystem),
					Name:       domain.NewInternedString(pkg.Name),
					Version:    pkg.Version,
					Build:      pkg.Build,
					Hash:       pkg.Sha256,
					Source:     pkg.Source,
					Provenance: domain.Provenance(pkg.Provenance),
					Requires:   pkg.Requires,
				})
			}
			pair := domain.PairKey{
				Environment: env.Name,
				Platform:    domain.Platform(pairDoc.Platform),
			}
			lockfile.Pairs[pair] = domain.LockedPair{
				InputHash: pairDoc.InputHash,
				Record:    record,
			}
		}
	}
	return lockfile
}
