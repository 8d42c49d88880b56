package domain

import "time"

// IndexEntry is one candidate package in a fetched metadata index.
type IndexEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build,omitempty"`
	Hash    string `json:"hash"`
	URL     string `json:"url"`
}

// PackageIndex is the metadata for one (source, platform) pair, as fetched
// from a channel or index and consulted by the solvers.
type PackageIndex struct {
	Source    string       `json:"source"`
	Platform  Platform     `json:"platform"`
	FetchedAt time.Time    `json:"fetched_at"`
	Entries   []IndexEntry `json:"entries"`
}
