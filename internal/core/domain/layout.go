package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// ManifestFileName is the name of the workspace manifest.
	ManifestFileName = "kiln.yaml"

	// LockFileName is the name of the lockfile.
	LockFileName = "kiln.lock"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// MetadataDirName is the name of the metadata cache directory.
	MetadataDirName = "metadata"

	// PackagesDirName is the name of the downloaded package archive cache.
	PackagesDirName = "pkgs"

	// EnvsDirName is the name of the installed environments directory.
	EnvsDirName = "envs"

	// StateFileName is the installed-state document inside an environment
	// prefix.
	StateFileName = "state.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultMetadataCachePath returns the metadata cache directory under the
// workspace root.
func DefaultMetadataCachePath(root string) string {
	return filepath.Join(root, KilnDirName, CacheDirName, MetadataDirName)
}

// DefaultPackageCachePath returns the package archive cache directory.
func DefaultPackageCachePath(root string) string {
	return filepath.Join(root, KilnDirName, CacheDirName, PackagesDirName)
}

// EnvPrefix returns the installation prefix for one pair.
func EnvPrefix(root string, pair PairKey) string {
	return filepath.Join(root, KilnDirName, EnvsDirName, pair.Environment, string(pair.Platform))
}

// LockfilePath returns the lockfile location under the workspace root.
func LockfilePath(root string) string {
	return filepath.Join(root, LockFileName)
}

// ManifestPath returns the manifest location under the workspace root.
func ManifestPath(root string) string {
	return filepath.Join(root, ManifestFileName)
}
