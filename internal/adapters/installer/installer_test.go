package installer_test

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"go.trai.ch/kiln/internal/adapters/envstate"
	"go.trai.ch/kiln/internal/adapters/installer"
	"go.trai.ch/kiln/internal/core/domain"
)

// makeArchive builds an xz-compressed tar archive holding the given files
// and returns its bytes with their sha256 digest.
func makeArchive(t *testing.T, files map[string]string) ([]byte, string) {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	digest := sha256.Sum256(xzBuf.Bytes())
	return xzBuf.Bytes(), hex.EncodeToString(digest[:])
}

func serveArchive(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInstaller_Apply_Install(t *testing.T) {
	archive, digest := makeArchive(t, map[string]string{
		"bin/python":      "#!interpreter",
		"lib/libpython.a": "objects",
	})
	server := serveArchive(t, archive)

	states := envstate.NewStore()
	inst := installer.New(t.TempDir(), states)
	prefix := t.TempDir()

	pkg := domain.Package{
		Ecosystem:  domain.EcosystemBinary,
		Name:       domain.NewInternedString("python"),
		Version:    "3.11.4",
		Hash:       digest,
		Source:     server.URL,
		Provenance: domain.ProvenanceBinary,
	}
	ops := []domain.Operation{{Kind: domain.OpInstall, Package: pkg}}

	completed, err := inst.Apply(t.Context(), ops, prefix)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	extracted := filepath.Join(prefix, domain.PackagesDirName, "python-3.11.4", "bin", "python")
	content, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, "#!interpreter", string(content))

	state, err := states.Read(prefix)
	require.NoError(t, err)
	require.Len(t, state.Packages, 1)
	assert.Equal(t, "python", state.Packages[0].Name.String())
}

func TestInstaller_Apply_HashMismatch(t *testing.T) {
	archive, _ := makeArchive(t, map[string]string{"file": "content"})
	server := serveArchive(t, archive)

	inst := installer.New(t.TempDir(), envstate.NewStore())

	pkg := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("python"),
		Version:   "3.11.4",
		Hash:      "0000000000000000",
		Source:    server.URL,
	}
	ops := []domain.Operation{{Kind: domain.OpInstall, Package: pkg}}

	completed, err := inst.Apply(t.Context(), ops, t.TempDir())
	require.Error(t, err)
	assert.Empty(t, completed)
	assert.Contains(t, err.Error(), "hash mismatch")
	assert.Contains(t, err.Error(), domain.ErrPartialInstall.Error())
}

func TestInstaller_Apply_Remove(t *testing.T) {
	states := envstate.NewStore()
	inst := installer.New(t.TempDir(), states)
	prefix := t.TempDir()

	pkg := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("python"),
		Version:   "3.11.4",
	}
	pkgDir := filepath.Join(prefix, domain.PackagesDirName, "python-3.11.4")
	require.NoError(t, os.MkdirAll(pkgDir, domain.DirPerm))
	require.NoError(t, states.Write(prefix, &domain.InstalledState{Packages: []domain.Package{pkg}}))

	completed, err := inst.Apply(t.Context(), []domain.Operation{{Kind: domain.OpRemove, Package: pkg}}, prefix)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	_, statErr := os.Stat(pkgDir)
	assert.True(t, os.IsNotExist(statErr), "package directory is removed")

	state, err := states.Read(prefix)
	require.NoError(t, err)
	assert.Empty(t, state.Packages)
}

func TestInstaller_Apply_Update(t *testing.T) {
	archive, digest := makeArchive(t, map[string]string{"bin/python": "new build"})
	server := serveArchive(t, archive)

	states := envstate.NewStore()
	inst := installer.New(t.TempDir(), states)
	prefix := t.TempDir()

	previous := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("python"),
		Version:   "3.11.4",
	}
	updated := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("python"),
		Version:   "3.11.5",
		Hash:      digest,
		Source:    server.URL,
	}

	oldDir := filepath.Join(prefix, domain.PackagesDirName, "python-3.11.4")
	require.NoError(t, os.MkdirAll(oldDir, domain.DirPerm))
	require.NoError(t, states.Write(prefix, &domain.InstalledState{Packages: []domain.Package{previous}}))

	ops := []domain.Operation{{Kind: domain.OpUpdate, Package: updated, Previous: previous}}
	completed, err := inst.Apply(t.Context(), ops, prefix)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	_, statErr := os.Stat(oldDir)
	assert.True(t, os.IsNotExist(statErr))

	state, err := states.Read(prefix)
	require.NoError(t, err)
	require.Len(t, state.Packages, 1)
	assert.Equal(t, "3.11.5", state.Packages[0].Version)
}

func TestInstaller_Apply_PartialFailure(t *testing.T) {
	archive, digest := makeArchive(t, map[string]string{"file": "ok"})
	server := serveArchive(t, archive)

	states := envstate.NewStore()
	inst := installer.New(t.TempDir(), states)
	prefix := t.TempDir()

	good := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("zlib"),
		Version:   "1.3",
		Hash:      digest,
		Source:    server.URL,
	}
	// No source URL: the download cannot even start.
	bad := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("openssl"),
		Version:   "3.1.0",
	}
	ops := []domain.Operation{
		{Kind: domain.OpInstall, Package: good},
		{Kind: domain.OpInstall, Package: bad},
	}

	completed, err := inst.Apply(t.Context(), ops, prefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrPartialInstall.Error())

	// The completed prefix covers exactly the operations that succeeded,
	// and the state document reflects them.
	require.Len(t, completed, 1)
	assert.Equal(t, "zlib", completed[0].Package.Name.String())

	state, err := states.Read(prefix)
	require.NoError(t, err)
	require.Len(t, state.Packages, 1)
	assert.Equal(t, "zlib", state.Packages[0].Name.String())
}

func TestInstaller_Apply_CachedArchiveSkipsDownload(t *testing.T) {
	archive, digest := makeArchive(t, map[string]string{"file": "cached"})

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)

	cacheDir := t.TempDir()
	states := envstate.NewStore()
	inst := installer.New(cacheDir, states)

	pkg := domain.Package{
		Ecosystem: domain.EcosystemBinary,
		Name:      domain.NewInternedString("zlib"),
		Version:   "1.3",
		Hash:      digest,
		Source:    server.URL,
	}
	ops := []domain.Operation{{Kind: domain.OpInstall, Package: pkg}}

	_, err := inst.Apply(t.Context(), ops, t.TempDir())
	require.NoError(t, err)
	_, err = inst.Apply(t.Context(), ops, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, requests, "the second install reuses the cached archive")
}
