package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestDiffPackages(t *testing.T) {
	python := pkg(domain.EcosystemBinary, "python", "3.11.4")
	pythonNew := pkg(domain.EcosystemBinary, "python", "3.11.5")
	requests := pkg(domain.EcosystemLanguage, "requests", "2.31.0")
	idna := pkg(domain.EcosystemLanguage, "idna", "3.4")

	t.Run("Empty on identical sets", func(t *testing.T) {
		d := domain.DiffPackages(
			[]domain.Package{python, requests},
			[]domain.Package{requests, python},
		)
		assert.True(t, d.Empty())
		assert.Zero(t, d.Count())
	})

	t.Run("Partitions added removed changed", func(t *testing.T) {
		d := domain.DiffPackages(
			[]domain.Package{python, requests},
			[]domain.Package{pythonNew, idna},
		)
		require.Len(t, d.Added, 1)
		require.Len(t, d.Removed, 1)
		require.Len(t, d.Changed, 1)
		assert.Equal(t, "idna", d.Added[0].Name.String())
		assert.Equal(t, "requests", d.Removed[0].Name.String())
		assert.Equal(t, "3.11.4", d.Changed[0].Old.Version)
		assert.Equal(t, "3.11.5", d.Changed[0].New.Version)
		assert.Equal(t, 3, d.Count())
	})

	t.Run("Build change is a change", func(t *testing.T) {
		rebuilt := python
		rebuilt.Build = "h123_1"
		d := domain.DiffPackages([]domain.Package{python}, []domain.Package{rebuilt})
		assert.Len(t, d.Changed, 1)
	})

	t.Run("Deterministic output order", func(t *testing.T) {
		updated := []domain.Package{
			pkg(domain.EcosystemLanguage, "zz", "1"),
			pkg(domain.EcosystemBinary, "aa", "1"),
			pkg(domain.EcosystemLanguage, "mm", "1"),
		}
		d := domain.DiffPackages(nil, updated)
		require.Len(t, d.Added, 3)
		assert.Equal(t, "aa", d.Added[0].Name.String())
		assert.Equal(t, "mm", d.Added[1].Name.String())
		assert.Equal(t, "zz", d.Added[2].Name.String())
	})
}

func TestOperationsFromDiff(t *testing.T) {
	d := domain.DiffPackages(
		[]domain.Package{
			pkg(domain.EcosystemBinary, "python", "3.11.4"),
			pkg(domain.EcosystemLanguage, "requests", "2.31.0"),
		},
		[]domain.Package{
			pkg(domain.EcosystemBinary, "python", "3.11.5"),
			pkg(domain.EcosystemLanguage, "idna", "3.4"),
		},
	)
	ops := domain.OperationsFromDiff(d)
	require.Len(t, ops, 3)

	// Removals first, then updates, then installs.
	assert.Equal(t, domain.OpRemove, ops[0].Kind)
	assert.Equal(t, "requests", ops[0].Package.Name.String())
	assert.Equal(t, domain.OpUpdate, ops[1].Kind)
	assert.Equal(t, "3.11.5", ops[1].Package.Version)
	assert.Equal(t, "3.11.4", ops[1].Previous.Version)
	assert.Equal(t, domain.OpInstall, ops[2].Kind)
	assert.Equal(t, "idna", ops[2].Package.Name.String())
}
