package envstate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/envstate"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestStore_Read_NeverSynchronized(t *testing.T) {
	store := envstate.NewStore()

	state, err := store.Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, state.Packages)
}

func TestStore_Read_Corrupt(t *testing.T) {
	prefix := t.TempDir()
	path := filepath.Join(prefix, domain.StateFileName)
	require.NoError(t, os.WriteFile(path, []byte("not json"), domain.FilePerm))

	_, err := envstate.NewStore().Read(prefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt installed state")
}

func TestStore_Roundtrip(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "dev", "linux-64")
	store := envstate.NewStore()

	state := &domain.InstalledState{Packages: []domain.Package{
		{
			Ecosystem:  domain.EcosystemBinary,
			Name:       domain.NewInternedString("python"),
			Version:    "3.11.4",
			Build:      "h123_0",
			Hash:       "aabbcc",
			Source:     "https://channels.example/python.tar.xz",
			Provenance: domain.ProvenanceBinary,
		},
		{
			Ecosystem:  domain.EcosystemLanguage,
			Name:       domain.NewInternedString("cryptography"),
			Version:    "41.0.0",
			Hash:       "ddeeff",
			Provenance: domain.ProvenanceLanguage,
			Requires:   []string{"openssl"},
		},
	}}

	// Write creates the prefix directory if needed.
	require.NoError(t, store.Write(prefix, state))

	loaded, err := store.Read(prefix)
	require.NoError(t, err)
	require.Len(t, loaded.Packages, 2)
	assert.Equal(t, state.Packages[0], loaded.Packages[0])
	assert.Equal(t, state.Packages[1], loaded.Packages[1])
}

func TestStore_Write_Replaces(t *testing.T) {
	prefix := t.TempDir()
	store := envstate.NewStore()

	first := &domain.InstalledState{Packages: []domain.Package{
		{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("python"), Version: "3.11.4"},
	}}
	require.NoError(t, store.Write(prefix, first))
	require.NoError(t, store.Write(prefix, &domain.InstalledState{}))

	loaded, err := store.Read(prefix)
	require.NoError(t, err)
	assert.Empty(t, loaded.Packages)
}
