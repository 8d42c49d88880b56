package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Platform identifies a resolution target (e.g. "linux-64", "osx-arm64").
type Platform string

// Channel is a binary-ecosystem package source with an optional priority.
// Higher priority channels are consulted first by the solver.
type Channel struct {
	Name     string
	Priority int
}

// Feature is a named, composable set of dependency specs. Environments are
// built by unioning features; on an exact duplicate key the spec from the
// later-declared feature wins.
type Feature struct {
	// Name is the feature name ("default" for the implicit root feature).
	Name string

	// Platforms optionally restricts the feature to a subset of platforms.
	// Empty means the feature applies everywhere.
	Platforms []Platform

	// Specs are the feature's dependency specs in declaration order.
	Specs []Spec

	// Targets holds per-platform spec overrides, merged on top of Specs
	// for the matching platform.
	Targets map[Platform][]Spec
}

// Environment is a named, independently resolved set of dependencies.
type Environment struct {
	Name string

	// Features lists the composed features in declaration order.
	// The implicit "default" feature is always first.
	Features []string

	// SolveGroup optionally names a group of environments that share a
	// single solver invocation per platform.
	SolveGroup string

	// Platforms optionally overrides the manifest-level platform list.
	Platforms []Platform
}

// Manifest is the typed in-memory form of the workspace declaration.
type Manifest struct {
	Name    string
	Version string

	// Channels are the workspace-level binary package sources.
	Channels []Channel

	// Platforms is the default platform set for environments that do not
	// declare their own.
	Platforms []Platform

	// Features holds all declared features; FeatureOrder preserves
	// declaration order for conflict precedence.
	Features     map[string]Feature
	FeatureOrder []string

	// Environments holds all declared environments; EnvironmentOrder
	// preserves declaration order for deterministic planning.
	Environments     map[string]Environment
	EnvironmentOrder []string

	// Exclusions names language packages that must never be shadowed by a
	// binary package of the same normalized name.
	Exclusions []InternedString
}

// Validate checks referential integrity of the manifest: every environment
// references declared features and resolves to at least one platform.
func (m *Manifest) Validate() error {
	if len(m.Platforms) == 0 {
		return ErrNoPlatforms
	}
	for _, name := range m.EnvironmentOrder {
		env, ok := m.Environments[name]
		if !ok {
			return zerr.With(ErrUnknownEnvironment, "environment", name)
		}
		for _, feat := range env.Features {
			if _, ok := m.Features[feat]; !ok {
				err := zerr.With(ErrUnknownFeature, "environment", name)
				return zerr.With(err, "feature", feat)
			}
		}
		if len(m.PlatformsFor(name)) == 0 {
			return zerr.With(ErrNoPlatforms, "environment", name)
		}
	}
	return nil
}

// PlatformsFor returns the platform set an environment resolves for.
func (m *Manifest) PlatformsFor(envName string) []Platform {
	env, ok := m.Environments[envName]
	if !ok {
		return nil
	}
	if len(env.Platforms) > 0 {
		return env.Platforms
	}
	return m.Platforms
}

// Pairs enumerates every (environment, platform) pair of the manifest in
// declaration order. This is the unit of resolution and synchronization.
func (m *Manifest) Pairs() []PairKey {
	var pairs []PairKey
	for _, name := range m.EnvironmentOrder {
		for _, platform := range m.PlatformsFor(name) {
			pairs = append(pairs, PairKey{Environment: name, Platform: platform})
		}
	}
	return pairs
}

// EffectiveSpecs computes the composed spec set for one pair: the union of
// the environment's features in declaration order, with the later feature
// winning on an exact duplicate (ecosystem, normalized name) key and
// per-platform target entries overriding the feature's base specs.
// The result is sorted by key so identical inputs always produce the same
// slice regardless of map iteration order.
func (m *Manifest) EffectiveSpecs(envName string, platform Platform) []Spec {
	env, ok := m.Environments[envName]
	if !ok {
		return nil
	}

	merged := make(map[SpecKey]Spec)
	for _, featName := range env.Features {
		feat, ok := m.Features[featName]
		if !ok {
			continue
		}
		if !feat.appliesTo(platform) {
			continue
		}
		for _, spec := range feat.Specs {
			merged[spec.Key()] = spec
		}
		for _, spec := range feat.Targets[platform] {
			merged[spec.Key()] = spec
		}
	}

	specs := make([]Spec, 0, len(merged))
	for _, spec := range merged {
		specs = append(specs, spec)
	}
	slices.SortFunc(specs, CompareSpecs)
	return specs
}

// SpecsFor splits the effective spec set of a pair by ecosystem.
func (m *Manifest) SpecsFor(envName string, platform Platform) (binary, language []Spec) {
	for _, spec := range m.EffectiveSpecs(envName, platform) {
		switch spec.Ecosystem {
		case EcosystemBinary:
			binary = append(binary, spec)
		case EcosystemLanguage:
			language = append(language, spec)
		}
	}
	return binary, language
}

// ExclusionSet returns the normalized exclusion names for fast lookup.
func (m *Manifest) ExclusionSet() map[string]bool {
	set := make(map[string]bool, len(m.Exclusions))
	for _, name := range m.Exclusions {
		set[NormalizeName(name.String())] = true
	}
	return set
}

// CompareSpecs orders specs by ecosystem, then normalized name.
func CompareSpecs(a, b Spec) int {
	if a.Ecosystem != b.Ecosystem {
		if a.Ecosystem == EcosystemBinary {
			return -1
		}
		return 1
	}
	an, bn := NormalizeName(a.Name.String()), NormalizeName(b.Name.String())
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}

func (f *Feature) appliesTo(platform Platform) bool {
	if len(f.Platforms) == 0 {
		return true
	}
	return slices.Contains(f.Platforms, platform)
}
