// Package config loads nestgraph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/nestgraph/config.toml (falling back to
// ~/.config). Every key is optional; anything left out keeps its default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/history"
)

// AppName names the config and cache directories.
const AppName = "nestgraph"

// Backend names accepted in the [cache] and [storage] sections.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendNeo4j  = "neo4j"
)

// Config holds nestgraph configuration.
type Config struct {
	Sizing  SizingConfig  `toml:"sizing"`
	Editor  EditorConfig  `toml:"editor"`
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
}

// SizingConfig controls container auto-sizing and default boxes.
type SizingConfig struct {
	Padding      float64 `toml:"padding"`
	HeaderHeight float64 `toml:"header_height"`
	MinWidth     float64 `toml:"min_width"`
	MinHeight    float64 `toml:"min_height"`
	NodeWidth    float64 `toml:"node_width"`
	NodeHeight   float64 `toml:"node_height"`
}

// EditorConfig controls undo depth and paste placement.
type EditorConfig struct {
	HistoryCapacity int     `toml:"history_capacity"`
	PasteOffsetX    float64 `toml:"paste_offset_x"`
	PasteOffsetY    float64 `toml:"paste_offset_y"`
}

// CacheConfig selects where rendered artifacts are cached.
type CacheConfig struct {
	Backend       string `toml:"backend"` // "file", "redis", "none"
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTL           string `toml:"ttl"`

	// KeyPrefix namespaces cache keys, so several deployments can share one
	// Redis.
	KeyPrefix string `toml:"key_prefix"`
}

// StorageConfig selects where documents are kept.
type StorageConfig struct {
	Backend       string `toml:"backend"` // "file", "memory", "mongo", "neo4j"
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	Neo4jURI      string `toml:"neo4j_uri"`
	Neo4jUser     string `toml:"neo4j_user"`
	Neo4jPassword string `toml:"neo4j_password"`
	Neo4jDatabase string `toml:"neo4j_database"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	z := graph.DefaultSizing()
	return &Config{
		Sizing: SizingConfig{
			Padding:      z.Padding,
			HeaderHeight: z.HeaderHeight,
			MinWidth:     z.MinSize.Width,
			MinHeight:    z.MinSize.Height,
			NodeWidth:    z.NodeSize.Width,
			NodeHeight:   z.NodeSize.Height,
		},
		Editor: EditorConfig{
			HistoryCapacity: history.DefaultCapacity,
			PasteOffsetX:    20,
			PasteOffsetY:    20,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       "24h",
		},
		Storage: StorageConfig{
			Backend:       BackendFile,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
			Neo4jURI:      "neo4j://localhost:7687",
			Neo4jUser:     "neo4j",
			Neo4jDatabase: "neo4j",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// ConfigDir returns the nestgraph config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory for documents stored by the file backend.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, AppName, "documents")
}

// Load reads the config at path, or at [DefaultPath] when path is empty. A
// missing file yields the defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, or to [DefaultPath] when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(Default(), path)
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	var problems []error
	z := c.Sizing
	if z.Padding < 0 || z.HeaderHeight < 0 {
		problems = append(problems, errors.New("sizing: padding and header_height must not be negative"))
	}
	if z.MinWidth <= 0 || z.MinHeight <= 0 || z.NodeWidth <= 0 || z.NodeHeight <= 0 {
		problems = append(problems, errors.New("sizing: sizes must be positive"))
	}
	if c.Editor.HistoryCapacity < 0 {
		problems = append(problems, errors.New("editor: history_capacity must not be negative"))
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		problems = append(problems, fmt.Errorf("cache: unknown backend %q", c.Cache.Backend))
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		problems = append(problems, err)
	}
	if c.Cache.RedisDB < 0 {
		problems = append(problems, errors.New("cache: redis_db must not be negative"))
	}
	switch c.Storage.Backend {
	case BackendFile, BackendMemory, BackendMongo, BackendNeo4j:
	default:
		problems = append(problems, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend))
	}
	return errors.Join(problems...)
}

// GraphSizing converts the [sizing] section for the store.
func (c *Config) GraphSizing() graph.Sizing {
	z := c.Sizing
	return graph.Sizing{
		Padding:      z.Padding,
		HeaderHeight: z.HeaderHeight,
		MinSize:      geometry.Size{Width: z.MinWidth, Height: z.MinHeight},
		NodeSize:     geometry.Size{Width: z.NodeWidth, Height: z.NodeHeight},
	}
}

// PasteOffset returns the paste offset as a vector.
func (c *Config) PasteOffset() geometry.Vec2 {
	return geometry.Vec2{X: c.Editor.PasteOffsetX, Y: c.Editor.PasteOffsetY}
}

// TTLDuration parses the ttl setting. An empty value means no expiry.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid ttl %q: %w", c.TTL, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache: ttl %q must not be negative", c.TTL)
	}
	return d, nil
}
