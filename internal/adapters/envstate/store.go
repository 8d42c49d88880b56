// Package envstate persists the installed-state document of an
// environment prefix.
package envstate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.EnvStateStore = (*Store)(nil)

// Store implements ports.EnvStateStore using one JSON document per
// environment prefix.
type Store struct{}

// NewStore creates an installed-state store.
func NewStore() *Store {
	return &Store{}
}

// stateDocument is the serialized form of an installed state.
type stateDocument struct {
	Packages []packageDocument `json:"packages"`
}

type packageDocument struct {
	Ecosystem  string   `json:"ecosystem"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Build      string   `json:"build,omitempty"`
	Sha256     string   `json:"sha256,omitempty"`
	Source     string   `json:"source,omitempty"`
	Provenance string   `json:"provenance"`
	Requires   []string `json:"requires,omitempty"`
}

// Read returns the installed state for the prefix. A prefix that was
// never synchronized yields an empty state.
func (s *Store) Read(prefix string) (*domain.InstalledState, error) {
	//nolint:gosec // Path is constructed from a trusted prefix
	data, err := os.ReadFile(s.path(prefix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.InstalledState{}, nil
		}
		return nil, zerr.Wrap(err, "failed to read installed state")
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, "corrupt installed state")
	}

	state := &domain.InstalledState{}
	for _, pkg := range doc.Packages {
		state.Packages = append(state.Packages, domain.Package{
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
	return state, nil
}

// Write replaces the installed state for the prefix.
func (s *Store) Write(prefix string, state *domain.InstalledState) error {
	doc := stateDocument{Packages: make([]packageDocument, 0, len(state.Packages))}
	for _, pkg := range state.Packages {
		doc.Packages = append(doc.Packages, packageDocument{
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

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal installed state")
	}

	path := s.path(prefix)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create state directory")
	}
	//nolint:gosec // Path is constructed from a trusted prefix
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to write installed state")
	}
	return nil
}

func (s *Store) path(prefix string) string {
	return filepath.Join(filepath.Clean(prefix), domain.StateFileName)
}
