// Package installer materializes locked packages into environment
// prefixes.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const downloadTimeout = 5 * time.Minute

var _ ports.Installer = (*Installer)(nil)

// Installer implements ports.Installer. Packages are downloaded into a
// shared archive cache, verified against their locked hash, and extracted
// into a per-package directory under the prefix. The installed-state
// document is updated after every completed operation, so a partial
// failure leaves the state accurate for the next diff.
type Installer struct {
	cacheDir   string
	states     ports.EnvStateStore
	httpClient *http.Client
}

// New creates an installer using the given archive cache directory and
// installed-state store.
func New(cacheDir string, states ports.EnvStateStore) *Installer {
	return &Installer{
		cacheDir: filepath.Clean(cacheDir),
		states:   states,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// Apply executes the operations against the prefix in order. On failure
// the returned slice covers the operations that completed and the error
// wraps domain.ErrPartialInstall.
func (i *Installer) Apply(ctx context.Context, ops []domain.Operation, prefix string) ([]domain.Operation, error) {
	state, err := i.states.Read(prefix)
	if err != nil {
		return nil, err
	}

	completed := make([]domain.Operation, 0, len(ops))
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return completed, i.partial(err, op, prefix)
		}
		if err := i.applyOne(ctx, op, prefix, state); err != nil {
			return completed, i.partial(err, op, prefix)
		}
		if err := i.states.Write(prefix, state); err != nil {
			return completed, i.partial(err, op, prefix)
		}
		completed = append(completed, op)
	}
	return completed, nil
}

func (i *Installer) applyOne(ctx context.Context, op domain.Operation, prefix string, state *domain.InstalledState) error {
	switch op.Kind {
	case domain.OpRemove:
		if err := i.removePackage(prefix, op.Package); err != nil {
			return err
		}
		dropPackage(state, op.Package)
		return nil
	case domain.OpUpdate:
		if err := i.removePackage(prefix, op.Previous); err != nil {
			return err
		}
		dropPackage(state, op.Previous)
		if err := i.installPackage(ctx, prefix, op.Package); err != nil {
			return err
		}
		state.Packages = append(state.Packages, op.Package)
		return nil
	case domain.OpInstall:
		if err := i.installPackage(ctx, prefix, op.Package); err != nil {
			return err
		}
		state.Packages = append(state.Packages, op.Package)
		return nil
	default:
		return zerr.With(zerr.New("unknown operation kind"), "kind", string(op.Kind))
	}
}

func (i *Installer) installPackage(ctx context.Context, prefix string, pkg domain.Package) error {
	archive, err := i.ensureArchive(ctx, pkg)
	if err != nil {
		return err
	}

	dest := packageDir(prefix, pkg)
	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create package directory")
	}
	if err := extractArchive(archive, dest); err != nil {
		_ = os.RemoveAll(dest)
		return err
	}
	return nil
}

func (i *Installer) removePackage(prefix string, pkg domain.Package) error {
	if err := os.RemoveAll(packageDir(prefix, pkg)); err != nil {
		removeErr := zerr.Wrap(err, "failed to remove package")
		return zerr.With(removeErr, "package", pkg.Name.String())
	}
	return nil
}

// ensureArchive returns the cached archive path for pkg, downloading it
// first if needed. The download is verified against the locked hash
// before the cache entry becomes visible.
func (i *Installer) ensureArchive(ctx context.Context, pkg domain.Package) (string, error) {
	path := i.archivePath(pkg)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if pkg.Source == "" {
		missingErr := zerr.New("locked package has no source url")
		return "", zerr.With(missingErr, "package", pkg.Name.String())
	}

	if err := os.MkdirAll(i.cacheDir, domain.DirPerm); err != nil {
		return "", zerr.Wrap(err, "failed to create package cache")
	}

	tmp, err := os.CreateTemp(i.cacheDir, ".download-*")
	if err != nil {
		return "", zerr.Wrap(err, "failed to create download file")
	}
	tmpPath := tmp.Name()

	digest, err := i.download(ctx, pkg.Source, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		dlErr := zerr.Wrap(err, "failed to download package")
		return "", zerr.With(dlErr, "package", pkg.Name.String())
	}

	if pkg.Hash != "" && digest != pkg.Hash {
		_ = os.Remove(tmpPath)
		hashErr := zerr.New("package hash mismatch")
		hashErr = zerr.With(hashErr, "package", pkg.Name.String())
		hashErr = zerr.With(hashErr, "expected", pkg.Hash)
		return "", zerr.With(hashErr, "actual", digest)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", zerr.Wrap(err, "failed to commit package download")
	}
	return path, nil
}

func (i *Installer) download(ctx context.Context, url string, dst io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.New("package download returned non-OK status")
		return "", zerr.With(statusErr, "status_code", resp.StatusCode)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, hasher), resp.Body); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (i *Installer) archivePath(pkg domain.Package) string {
	name := fmt.Sprintf("%s-%s", pkg.Name.String(), pkg.Version)
	if pkg.Build != "" {
		name += "-" + pkg.Build
	}
	if pkg.Hash != "" {
		name += "-" + pkg.Hash[:min(12, len(pkg.Hash))]
	}
	return filepath.Join(i.cacheDir, name+".tar.xz")
}

func (i *Installer) partial(err error, op domain.Operation, prefix string) error {
	partialErr := zerr.Wrap(err, domain.ErrPartialInstall.Error())
	partialErr = zerr.With(partialErr, "operation", string(op.Kind))
	partialErr = zerr.With(partialErr, "package", op.Package.Name.String())
	return zerr.With(partialErr, "prefix", prefix)
}

// packageDir is the extraction directory for one installed package.
func packageDir(prefix string, pkg domain.Package) string {
	return filepath.Join(prefix, domain.PackagesDirName, fmt.Sprintf("%s-%s", pkg.Name.String(), pkg.Version))
}

func dropPackage(state *domain.InstalledState, pkg domain.Package) {
	state.Packages = slices.DeleteFunc(state.Packages, func(installed domain.Package) bool {
		return installed.Key() == pkg.Key()
	})
}
