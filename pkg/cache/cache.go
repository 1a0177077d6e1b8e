// Package cache stores rendered diagram artifacts keyed by document content.
//
// Three backends implement [Cache]:
//   - [FileCache] keeps entries as JSON files under the user cache directory
//   - [RedisCache] shares entries between server instances
//   - [NullCache] disables caching
//
// Keys come from a [Keyer], which hashes every input that affects the
// artifact, so an edited document never hits a stale rendering.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/nestgraph/pkg/config"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// RenderKey identifies one rendering of a document.
	RenderKey(docHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the rendering inputs that change the output.
type RenderKeyOpts struct {
	Format string `json:"format"` // "dot" or "svg"
	Layout string `json:"layout"` // Graphviz engine, e.g. "dot", "fdp"

	RankDir  string `json:"rankdir,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces keys of the form kind:sha256(inputs).
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey hashes the document hash together with the options.
func (DefaultKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return hashKey("render", docHash, opts)
}

// Dir returns the default directory of the file cache.
func Dir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, config.AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", config.AppName), nil
}

// Open builds the cache selected by cfg.
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return NewNullCache(), nil
	case config.BackendRedis:
		rc, err := NewRedisCache(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case config.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := Dir()
			if err != nil {
				return nil, fmt.Errorf("get cache dir: %w", err)
			}
			dir = d
		}
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
