// Package config provides the manifest loader for kiln.
package config

import (
	"fmt"
	"os"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFeatureName is the implicit feature formed by the manifest's
// top-level dependency tables. It is composed first into every
// environment.
const DefaultFeatureName = "default"

// DefaultEnvironmentName is the environment synthesized when the manifest
// declares none.
const DefaultEnvironmentName = "default"

var _ ports.ManifestLoader = (*FileManifestLoader)(nil)

// FileManifestLoader implements ports.ManifestLoader using a YAML file.
type FileManifestLoader struct {
	logger ports.Logger
}

// NewLoader creates a new FileManifestLoader.
func NewLoader(logger ports.Logger) *FileManifestLoader {
	return &FileManifestLoader{logger: logger}
}

// Load reads the manifest from the given workspace root.
func (l *FileManifestLoader) Load(root string) (*domain.Manifest, error) {
	manifest, err := Load(domain.ManifestPath(root))
	if err != nil {
		return nil, err
	}
	l.logger.Info(fmt.Sprintf("loaded manifest %q (%d environments, %d platforms)",
		manifest.Name, len(manifest.Environments), len(manifest.Platforms)))
	return manifest, nil
}

// Load reads a manifest file from the given path and returns the typed
// manifest graph.
func Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read manifest file")
	}
	return Parse(data)
}

// Parse decodes manifest bytes into a validated domain.Manifest.
func Parse(data []byte) (*domain.Manifest, error) {
	var file Kilnfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse manifest file")
	}

	manifest := &domain.Manifest{
		Name:         file.Name,
		Channels:     mapChannels(file.Channels),
		Platforms:    mapPlatforms(file.Platforms),
		Features:     make(map[string]domain.Feature),
		Environments: make(map[string]domain.Environment),
		Exclusions:   internStrings(file.Exclusions),
	}

	// The top-level dependency tables form the implicit default feature.
	manifest.Features[DefaultFeatureName] = domain.Feature{
		Name:    DefaultFeatureName,
		Specs:   mapSpecTables(file.Dependencies, file.LanguageDeps),
		Targets: mapTargets(file.Target),
	}
	manifest.FeatureOrder = []string{DefaultFeatureName}

	for _, name := range sortedKeys(file.Features) {
		dto := file.Features[name]
		manifest.Features[name] = domain.Feature{
			Name:      name,
			Platforms: mapPlatforms(dto.Platforms),
			Specs:     mapSpecTables(dto.Dependencies, dto.LanguageDeps),
			Targets:   mapTargets(dto.Target),
		}
		manifest.FeatureOrder = append(manifest.FeatureOrder, name)
	}

	if err := mapEnvironments(file.EnvironmentsNode, manifest); err != nil {
		return nil, err
	}

	if err := manifest.Validate(); err != nil {
		return nil, zerr.Wrap(err, "invalid manifest")
	}
	return manifest, nil
}

// mapEnvironments decodes the environments mapping, preserving declaration
// order, and synthesizes the default environment when absent. Every
// environment composes the default feature first, so a later-declared
// feature wins over it on duplicate keys.
func mapEnvironments(node yaml.Node, manifest *domain.Manifest) error {
	type entry struct {
		name string
		dto  EnvironmentDTO
	}
	var entries []entry

	if node.Kind == yaml.MappingNode {
		// Mapping nodes store keys and values interleaved in Content.
		for i := 0; i+1 < len(node.Content); i += 2 {
			var e entry
			e.name = node.Content[i].Value
			if err := node.Content[i+1].Decode(&e.dto); err != nil {
				return zerr.With(zerr.Wrap(err, "invalid environment"), "environment", e.name)
			}
			entries = append(entries, e)
		}
	}

	hasDefault := slices.ContainsFunc(entries, func(e entry) bool {
		return e.name == DefaultEnvironmentName
	})
	if !hasDefault {
		entries = append([]entry{{name: DefaultEnvironmentName}}, entries...)
	}

	for _, e := range entries {
		manifest.Environments[e.name] = domain.Environment{
			Name:       e.name,
			Features:   append([]string{DefaultFeatureName}, e.dto.Features...),
			SolveGroup: e.dto.SolveGroup,
			Platforms:  mapPlatforms(e.dto.Platforms),
		}
		manifest.EnvironmentOrder = append(manifest.EnvironmentOrder, e.name)
	}
	return nil
}

func mapChannels(dtos []ChannelDTO) []domain.Channel {
	channels := make([]domain.Channel, len(dtos))
	for i, dto := range dtos {
		channels[i] = domain.Channel{Name: dto.Name, Priority: dto.Priority}
	}
	return channels
}

func mapPlatforms(names []string) []domain.Platform {
	if len(names) == 0 {
		return nil
	}
	platforms := make([]domain.Platform, len(names))
	for i, name := range names {
		platforms[i] = domain.Platform(name)
	}
	return platforms
}

// mapSpecTables converts the two per-ecosystem dependency tables of a
// feature into a deterministic spec slice.
func mapSpecTables(binary, language map[string]SpecDTO) []domain.Spec {
	specs := make([]domain.Spec, 0, len(binary)+len(language))
	for _, name := range sortedKeys(binary) {
		specs = append(specs, mapSpec(domain.EcosystemBinary, name, binary[name]))
	}
	for _, name := range sortedKeys(language) {
		specs = append(specs, mapSpec(domain.EcosystemLanguage, name, language[name]))
	}
	return specs
}

func mapSpec(eco domain.Ecosystem, name string, dto SpecDTO) domain.Spec {
	return domain.Spec{
		Ecosystem:  eco,
		Name:       domain.NewInternedString(name),
		Constraint: dto.Version,
		Build:      dto.Build,
		Channel:    dto.Channel,
	}
}

func mapTargets(dtos map[string]TargetDTO) map[domain.Platform][]domain.Spec {
	if len(dtos) == 0 {
		return nil
	}
	targets := make(map[domain.Platform][]domain.Spec, len(dtos))
	for platform, dto := range dtos {
		targets[domain.Platform(platform)] = mapSpecTables(dto.Dependencies, dto.LanguageDeps)
	}
	return targets
}

func internStrings(strs []string) []domain.InternedString {
	res := make([]domain.InternedString, len(strs))
	for i, s := range strs {
		res[i] = domain.NewInternedString(s)
	}
	return res
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
