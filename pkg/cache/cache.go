// Package cache stores registry responses between runs.
//
// Every backend implements [Cache], a byte-oriented key/value store with
// per-entry TTL. The CLI uses [FileCache] under the XDG cache directory by
// default; shared CI runners can point several machines at [RedisCache] or
// [MongoCache]. [NullCache] disables caching.
//
// Keys are built with a [Keyer] so that all backends agree on the layout:
//
//	k := cache.NewDefaultKeyer()
//	k.HTTPKey("npm:", "left-pad") // "http:npm::left-pad"
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultTTL is how long registry responses stay cached. "latest" dist-tags
// move often, so this is kept short.
const DefaultTTL = 10 * time.Minute

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// ErrUnknownBackend is returned by [Open] for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Cache is a key/value store for serialized responses.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string // file (default), redis, mongo or none
	Dir           string // FileCache directory (default: DefaultDir)
	RedisURL      string // redis://host:6379/0
	MongoURI      string // mongodb://host:27017
	MongoDatabase string // Database holding the cache collection
	Prefix        string // Key prefix for shared backends
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendNone:
		return NewNullCache(), nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisURL, opts.Prefix)
	case BackendMongo:
		return NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// DefaultDir returns the file cache directory using the XDG standard
// ($XDG_CACHE_HOME/bumper, falling back to ~/.cache/bumper).
func DefaultDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "bumper"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "bumper"), nil
}
