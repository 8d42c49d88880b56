package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestManifest_InputHash(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		m := testManifest()
		first := m.InputHash("dev", "linux-64")
		for range 10 {
			assert.Equal(t, first, m.InputHash("dev", "linux-64"))
		}
	})

	t.Run("Differs per platform", func(t *testing.T) {
		m := testManifest()
		assert.NotEqual(t, m.InputHash("dev", "linux-64"), m.InputHash("dev", "osx-arm64"))
	})

	t.Run("Changes when a constraint changes", func(t *testing.T) {
		m := testManifest()
		before := m.InputHash("default", "linux-64")

		feat := m.Features["default"]
		feat.Specs[0].Constraint = ">=3.12"
		m.Features["default"] = feat

		assert.NotEqual(t, before, m.InputHash("default", "linux-64"))
	})

	t.Run("Changes when a channel changes", func(t *testing.T) {
		m := testManifest()
		before := m.InputHash("default", "linux-64")

		m.Channels = append(m.Channels, domain.Channel{Name: "extra", Priority: 2})

		assert.NotEqual(t, before, m.InputHash("default", "linux-64"))
	})

	t.Run("Exclusion order is irrelevant", func(t *testing.T) {
		a := testManifest()
		a.Exclusions = []domain.InternedString{
			domain.NewInternedString("numpy"),
			domain.NewInternedString("scipy"),
		}
		b := testManifest()
		b.Exclusions = []domain.InternedString{
			domain.NewInternedString("scipy"),
			domain.NewInternedString("numpy"),
		}
		assert.Equal(t, a.InputHash("default", "linux-64"), b.InputHash("default", "linux-64"))
	})

	t.Run("Environments with identical inputs share the hash", func(t *testing.T) {
		m := testManifest()
		m.Environments["clone"] = domain.Environment{Name: "clone", Features: []string{"default"}}
		m.EnvironmentOrder = append(m.EnvironmentOrder, "clone")

		assert.Equal(t, m.InputHash("default", "linux-64"), m.InputHash("clone", "linux-64"))
	})

	t.Run("Unrelated feature does not affect the hash", func(t *testing.T) {
		m := testManifest()
		before := m.InputHash("default", "linux-64")

		feat := m.Features["test"]
		feat.Specs[0].Constraint = ">=8"
		m.Features["test"] = feat

		assert.Equal(t, before, m.InputHash("default", "linux-64"), "default does not compose the test feature")
	})
}
