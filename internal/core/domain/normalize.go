package domain

import "strings"

// NormalizeName folds a package name for cross-ecosystem comparison:
// lower-case, with any run of '-', '_' or '.' collapsed to a single '-'.
// This matches PEP 503 normalization on the language side and is applied
// to both ecosystems before names are compared, so "Typing_Extensions"
// and "typing-extensions" are the same logical package.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	sep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
