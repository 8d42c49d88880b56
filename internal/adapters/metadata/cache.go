// Package metadata implements the caching metadata source consulted by
// the resolution planner before solving.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.MetadataSource = (*CachingSource)(nil)

// CachingSource wraps an upstream metadata source with an in-memory and
// an on-disk cache, both keyed by (source, platform). Concurrent requests
// for the same key trigger exactly one upstream fetch; other requesters
// await its completion (single-flight discipline). The lifecycle of the
// in-memory layer is bound to one engine invocation; the disk layer
// persists across runs.
type CachingSource struct {
	upstream ports.MetadataSource
	dir      string
	logger   ports.Logger

	group singleflight.Group

	mu  sync.RWMutex
	mem map[string]*domain.PackageIndex
}

// NewCachingSource creates a caching source writing its disk layer under
// dir. An empty dir disables the disk layer.
func NewCachingSource(upstream ports.MetadataSource, dir string, logger ports.Logger) *CachingSource {
	return &CachingSource{
		upstream: upstream,
		dir:      dir,
		logger:   logger,
		mem:      make(map[string]*domain.PackageIndex),
	}
}

// Fetch returns the package index for (source, platform), consulting the
// caches before the upstream source.
func (c *CachingSource) Fetch(ctx context.Context, source string, platform domain.Platform) (*domain.PackageIndex, error) {
	key := cacheKey(source, platform)

	c.mu.RLock()
	index, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return index, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if index, err := c.loadDisk(key); err == nil {
			c.remember(key, index)
			return index, nil
		}

		index, err := c.upstream.Fetch(ctx, source, platform)
		if err != nil {
			return nil, err
		}
		if err := c.saveDisk(key, index); err != nil {
			// A failed disk write degrades to memory-only caching.
			if c.logger != nil {
				c.logger.Warn(zerr.Wrap(err, "failed to persist metadata cache entry").Error())
			}
		}
		c.remember(key, index)
		return index, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.PackageIndex), nil
}

func (c *CachingSource) remember(key string, index *domain.PackageIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = index
}

func (c *CachingSource) loadDisk(key string) (*domain.PackageIndex, error) {
	if c.dir == "" {
		return nil, fs.ErrNotExist
	}

	//nolint:gosec // Path is derived from a hashed cache key
	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		return nil, err
	}

	var index domain.PackageIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, zerr.Wrap(err, "corrupt metadata cache entry")
	}
	return &index, nil
}

func (c *CachingSource) saveDisk(key string, index *domain.PackageIndex) error {
	if c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create metadata cache directory")
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal metadata cache entry")
	}
	if err := os.WriteFile(c.diskPath(key), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to write metadata cache entry")
	}
	return nil
}

func (c *CachingSource) diskPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// cacheKey derives a filesystem-safe key from (source, platform).
func cacheKey(source string, platform domain.Platform) string {
	hasher := xxhash.New()
	_, _ = hasher.WriteString(source)
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(string(platform))
	return fmt.Sprintf("%016x", hasher.Sum64())
}
