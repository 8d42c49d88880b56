// Package lockfile implements the persisted lockfile store.
package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.LockfileStore = (*Store)(nil)

// Store implements ports.LockfileStore using a single YAML document.
//
// Serialization is canonical: pairs are ordered by environment then
// platform and packages by ecosystem then normalized name, so identical
// state always serializes to byte-identical output. Saves replace the
// file atomically via a temp file and rename; the mutex serializes the
// final persisted write globally.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a lockfile store backed by the file at the given path.
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Load reads the lockfile. A missing file yields an empty lockfile.
func (s *Store) Load() (*domain.Lockfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewLockfile(), nil
		}
		return nil, zerr.Wrap(err, "failed to read lockfile")
	}

	var doc lockDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, "failed to parse lockfile")
	}
	return doc.toDomain(), nil
}

// Save writes the lockfile with an atomic replace.
func (s *Store) Save(lockfile *domain.Lockfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(newLockDocument(lockfile))
	if err != nil {
		return zerr.Wrap(err, "failed to marshal lockfile")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create lockfile directory")
	}

	tmp, err := os.CreateTemp(dir, ".kiln.lock.*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp lockfile")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to write temp lockfile")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to close temp lockfile")
	}
	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to chmod temp lockfile")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, "failed to replace lockfile")
	}
	return nil
}
