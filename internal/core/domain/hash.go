package domain

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// InputHash computes the hash of everything that feeds one pair's
// resolution: the platform, the channel list, the effective spec set and
// the exclusion list. A lockfile entry whose stored hash differs from the
// current manifest's is stale. Two pairs with equal hashes have identical
// resolution inputs and may share a single solver invocation.
func (m *Manifest) InputHash(envName string, platform Platform) string {
	specs := m.EffectiveSpecs(envName, platform)

	hasher := xxhash.New()
	writeField(hasher, string(platform))

	for _, ch := range m.Channels {
		writeField(hasher, ch.Name)
		writeField(hasher, fmt.Sprintf("%d", ch.Priority))
	}
	hasher.Write([]byte{0})

	for _, spec := range specs {
		writeField(hasher, string(spec.Ecosystem))
		writeField(hasher, NormalizeName(spec.Name.String()))
		writeField(hasher, spec.Constraint)
		writeField(hasher, spec.Build)
		writeField(hasher, spec.Channel)
	}
	hasher.Write([]byte{0})

	exclusions := make([]string, 0, len(m.Exclusions))
	for _, name := range m.Exclusions {
		exclusions = append(exclusions, NormalizeName(name.String()))
	}
	slices.Sort(exclusions)
	for _, name := range exclusions {
		writeField(hasher, name)
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}

func writeField(hasher *xxhash.Digest, s string) {
	_, _ = hasher.WriteString(s)
	_, _ = hasher.Write([]byte{0}) // Separator
}
