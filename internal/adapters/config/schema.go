package config

import (
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Kilnfile represents the structure of the kiln.yaml manifest file.
type Kilnfile struct {
	Version   int          `yaml:"version"`
	Name      string       `yaml:"name"`
	Channels  []ChannelDTO `yaml:"channels"`
	Platforms []string     `yaml:"platforms"`

	// Top-level dependency tables form the implicit "default" feature,
	// included first in every environment.
	Dependencies     map[string]SpecDTO    `yaml:"dependencies"`
	LanguageDeps     map[string]SpecDTO    `yaml:"language-dependencies"`
	Target           map[string]TargetDTO  `yaml:"target"`
	Exclusions       []string              `yaml:"exclusions"`
	Features         map[string]FeatureDTO `yaml:"features"`
	EnvironmentsNode yaml.Node             `yaml:"environments"`
}

// ChannelDTO accepts either a bare channel name or an inline table with a
// priority.
type ChannelDTO struct {
	Name     string
	Priority int
}

// UnmarshalYAML implements yaml.Unmarshaler for the string | table union.
func (c *ChannelDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	var table struct {
		Channel  string `yaml:"channel"`
		Priority int    `yaml:"priority"`
	}
	if err := node.Decode(&table); err != nil {
		return zerr.Wrap(err, "invalid channel entry")
	}
	c.Name = table.Channel
	c.Priority = table.Priority
	return nil
}

// SpecDTO accepts either a bare constraint string or an inline table with
// version, build and channel fields.
type SpecDTO struct {
	Version string
	Build   string
	Channel string
}

// UnmarshalYAML implements yaml.Unmarshaler for the string | table union.
func (s *SpecDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Version = node.Value
		return nil
	}
	var table struct {
		Version string `yaml:"version"`
		Build   string `yaml:"build"`
		Channel string `yaml:"channel"`
	}
	if err := node.Decode(&table); err != nil {
		return zerr.Wrap(err, "invalid dependency entry")
	}
	s.Version = table.Version
	s.Build = table.Build
	s.Channel = table.Channel
	return nil
}

// TargetDTO holds per-platform spec overrides.
type TargetDTO struct {
	Dependencies map[string]SpecDTO `yaml:"dependencies"`
	LanguageDeps map[string]SpecDTO `yaml:"language-dependencies"`
}

// FeatureDTO represents a feature definition.
type FeatureDTO struct {
	Platforms    []string             `yaml:"platforms"`
	Dependencies map[string]SpecDTO   `yaml:"dependencies"`
	LanguageDeps map[string]SpecDTO   `yaml:"language-dependencies"`
	Target       map[string]TargetDTO `yaml:"target"`
}

// EnvironmentDTO accepts either a bare feature list or an inline table
// with features, solve-group and platforms.
type EnvironmentDTO struct {
	Features   []string
	SolveGroup string
	Platforms  []string
}

// UnmarshalYAML implements yaml.Unmarshaler for the list | table union.
func (e *EnvironmentDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&e.Features)
	}
	var table struct {
		Features   []string `yaml:"features"`
		SolveGroup string   `yaml:"solve-group"`
		Platforms  []string `yaml:"platforms"`
	}
	if err := node.Decode(&table); err != nil {
		return zerr.Wrap(err, "invalid environment entry")
	}
	e.Features = table.Features
	e.SolveGroup = table.SolveGroup
	e.Platforms = table.Platforms
	return nil
}
