// Package config loads bumper settings from bumper.toml.
//
// Settings are looked up in an explicit --config path, then ./bumper.toml,
// then $XDG_CONFIG_HOME/bumper/bumper.toml (~/.config/bumper/bumper.toml).
// Command-line flags override file values when they are set explicitly.
//
//	concurrency = 16
//	keep_going  = true
//	registry    = "https://registry.npmjs.com"
//	timeout     = "15s"
//
//	[cache]
//	backend   = "redis"
//	ttl       = "30m"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/bumper/pkg/cache"
	"github.com/matzehuels/bumper/pkg/deps"
	bumperrors "github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/integrations/npm"
)

// FileName is the config file name looked up in the working directory and
// the user config directory.
const FileName = "bumper.toml"

const (
	DefaultTimeout = 10 * time.Second
	DefaultAddr    = ":8080"
)

// Config holds every setting that can come from bumper.toml.
type Config struct {
	Concurrency int          `toml:"concurrency"`
	Write       bool         `toml:"write"`
	KeepGoing   bool         `toml:"keep_going"`
	Registry    string       `toml:"registry"`
	Timeout     Duration     `toml:"timeout"`
	Cache       CacheConfig  `toml:"cache"`
	Server      ServerConfig `toml:"server"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	RedisURL      string   `toml:"redis_url"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	Prefix        string   `toml:"prefix"`
}

// ServerConfig configures `bumper serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("10m", "15s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	out := c
	if out.Concurrency == 0 {
		out.Concurrency = deps.DefaultConcurrency
	}
	if out.Registry == "" {
		out.Registry = npm.DefaultRegistry
	}
	if out.Timeout.Duration == 0 {
		out.Timeout.Duration = DefaultTimeout
	}
	if out.Cache.Backend == "" {
		out.Cache.Backend = cache.BackendFile
	}
	if out.Cache.TTL.Duration == 0 {
		out.Cache.TTL.Duration = cache.DefaultTTL
	}
	if out.Server.Addr == "" {
		out.Server.Addr = DefaultAddr
	}
	return out
}

var backends = []string{cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if err := bumperrors.ValidateURL(c.Registry); err != nil {
		return bumperrors.Wrap(bumperrors.ErrCodeInvalidConfig, err, "registry")
	}
	if c.Timeout.Duration < 0 {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "timeout must not be negative")
	}
	if !slices.Contains(backends, c.Cache.Backend) {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "" {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
	}
	if c.Cache.Backend == cache.BackendMongo && c.Cache.MongoURI == "" {
		return bumperrors.New(bumperrors.ErrCodeInvalidConfig, "cache backend mongo requires mongo_uri")
	}
	return nil
}

// CacheOptions converts the cache section for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           c.Cache.Dir,
		RedisURL:      c.Cache.RedisURL,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
		Prefix:        c.Cache.Prefix,
	}
}

// Load reads the configuration. An explicit path must exist; otherwise the
// first file found in [SearchPaths] is used. It returns the file that was
// read, or "" when none exists. Defaults are not applied.
func Load(explicit string) (Config, string, error) {
	if explicit != "" {
		cfg, err := decodeFile(explicit)
		return cfg, explicit, err
	}
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		cfg, err := decodeFile(p)
		return cfg, p, err
	}
	return Config{}, "", nil
}

// SearchPaths returns the implicit config locations in lookup order.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "bumper", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bumper", FileName))
	}
	return paths
}

func decodeFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, bumperrors.Wrap(bumperrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, bumperrors.New(bumperrors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	// A zero in the file is a setting, not an absent key.
	if md.IsDefined("concurrency") && cfg.Concurrency <= 0 {
		return Config{}, bumperrors.New(bumperrors.ErrCodeInvalidConfig, "%s: concurrency must be positive, got %d", path, cfg.Concurrency)
	}
	return cfg, nil
}
