// Package config loads the codechunk configuration from defaults, an
// optional YAML or TOML file and CODECHUNK_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/internal/lexer"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/pkg/types"
)

// DefaultDBPath is the default location of the index database
const DefaultDBPath = "~/.codechunk/codechunk.db"

// DefaultCachePath is the default location of the chunk result cache
const DefaultCachePath = "~/.codechunk/cache.db"

// Config holds all application configuration
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking" toml:"chunking"`
	Index    IndexConfig    `yaml:"index" toml:"index"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Search   SearchConfig   `yaml:"search" toml:"search"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Log      LogConfig      `yaml:"log" toml:"log"`

	// LanguageFiles lists TOML or YAML files with extra language tables
	LanguageFiles []string `envconfig:"CODECHUNK_LANGUAGE_FILES" yaml:"language_files" toml:"language_files"`
}

// ChunkingConfig holds the chunk budget and language settings
type ChunkingConfig struct {
	Language         string `envconfig:"CODECHUNK_LANGUAGE" yaml:"language" toml:"language"`
	Tokenizer        string `envconfig:"CODECHUNK_TOKENIZER" yaml:"tokenizer" toml:"tokenizer"`
	MaxSize          int    `envconfig:"CODECHUNK_MAX_SIZE" yaml:"max_size" toml:"max_size"`
	MinSize          int    `envconfig:"CODECHUNK_MIN_SIZE" yaml:"min_size" toml:"min_size"`
	Unit             string `envconfig:"CODECHUNK_UNIT" yaml:"unit" toml:"unit"`
	MergeAcrossKinds bool   `envconfig:"CODECHUNK_MERGE_ACROSS_KINDS" yaml:"merge_across_kinds" toml:"merge_across_kinds"`
	DropTruncated    bool   `envconfig:"CODECHUNK_DROP_TRUNCATED" yaml:"drop_truncated" toml:"drop_truncated"`
	Workers          int    `envconfig:"CODECHUNK_WORKERS" yaml:"workers" toml:"workers"` // 0 = NumCPU
}

// IndexConfig holds project indexing settings
type IndexConfig struct {
	Workers      int      `envconfig:"CODECHUNK_INDEX_WORKERS" yaml:"workers" toml:"workers"`
	BatchSize    int      `envconfig:"CODECHUNK_INDEX_BATCH_SIZE" yaml:"batch_size" toml:"batch_size"`
	Include      []string `envconfig:"CODECHUNK_INDEX_INCLUDE" yaml:"include" toml:"include"`
	Exclude      []string `envconfig:"CODECHUNK_INDEX_EXCLUDE" yaml:"exclude" toml:"exclude"`
	MaxFileBytes int64    `envconfig:"CODECHUNK_INDEX_MAX_FILE_BYTES" yaml:"max_file_bytes" toml:"max_file_bytes"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	Path string `envconfig:"CODECHUNK_DB_PATH" yaml:"path" toml:"path"`
}

// SearchConfig holds search settings
type SearchConfig struct {
	DefaultLimit int `envconfig:"CODECHUNK_SEARCH_LIMIT" yaml:"default_limit" toml:"default_limit"`
	CacheSize    int `envconfig:"CODECHUNK_SEARCH_CACHE_SIZE" yaml:"cache_size" toml:"cache_size"`
	CacheTTL     int `envconfig:"CODECHUNK_SEARCH_CACHE_TTL" yaml:"cache_ttl" toml:"cache_ttl"` // seconds
}

// CacheConfig holds chunk result cache settings
type CacheConfig struct {
	Enabled bool   `envconfig:"CODECHUNK_CACHE_ENABLED" yaml:"enabled" toml:"enabled"`
	Path    string `envconfig:"CODECHUNK_CACHE_PATH" yaml:"path" toml:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"CODECHUNK_LOG_LEVEL" yaml:"level" toml:"level"`
	Format string `envconfig:"CODECHUNK_LOG_FORMAT" yaml:"format" toml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	cc := chunker.DefaultConfig()
	return &Config{
		Chunking: ChunkingConfig{
			Tokenizer:        cc.Tokenizer,
			MaxSize:          cc.MaxSize,
			MinSize:          cc.MinSize,
			Unit:             string(cc.Unit),
			MergeAcrossKinds: cc.MergeAcrossKinds,
		},
		Index: IndexConfig{
			BatchSize:    20,
			MaxFileBytes: 1 << 20,
		},
		Storage: StorageConfig{Path: DefaultDBPath},
		Search: SearchConfig{
			DefaultLimit: 10,
			CacheSize:    1000,
			CacheTTL:     300,
		},
		Cache: CacheConfig{Enabled: true, Path: DefaultCachePath},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration: defaults, then the file at path (when
// non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: unsupported config format %q", types.ErrInvalidConfig, path)
	}
}

// Validate checks every setting. An unknown language is reported with
// types.ErrUnknownLanguage so callers fail before reading any source.
func (c *Config) Validate() error {
	var errs []string

	if _, err := c.ChunkerConfig(); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Chunking.Tokenizer {
	case "", lexer.Builtin, lexer.TreeSitter:
	default:
		errs = append(errs, fmt.Sprintf("invalid tokenizer: %s (must be %s or %s)", c.Chunking.Tokenizer, lexer.Builtin, lexer.TreeSitter))
	}
	if c.Chunking.Workers < 0 {
		errs = append(errs, "chunking workers must not be negative")
	}

	if c.Index.Workers < 0 {
		errs = append(errs, "index workers must not be negative")
	}
	if c.Index.BatchSize < 1 {
		errs = append(errs, "batch_size must be positive")
	}
	if c.Index.MaxFileBytes < 0 {
		errs = append(errs, "max_file_bytes must not be negative")
	}

	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > 100 {
		errs = append(errs, "default_limit must be between 1 and 100")
	}
	if c.Search.CacheSize < 0 {
		errs = append(errs, "cache_size must not be negative")
	}
	if c.Search.CacheTTL < 0 {
		errs = append(errs, "cache_ttl must not be negative")
	}

	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	if !logger.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if c.Chunking.Language != "" {
		if _, err := reg.Lookup(c.Chunking.Language); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the built-in language registry extended with the
// configured language files
func (c *Config) Registry() (*lang.Registry, error) {
	return lang.LoadRegistry(c.LanguageFiles...)
}

// ChunkerConfig converts the chunking section into a chunker.Config
func (c *Config) ChunkerConfig() (chunker.Config, error) {
	unit, err := chunker.ParseUnit(c.Chunking.Unit)
	if err != nil {
		return chunker.Config{}, err
	}
	cc := chunker.Config{
		Language:         c.Chunking.Language,
		Tokenizer:        c.Chunking.Tokenizer,
		MaxSize:          c.Chunking.MaxSize,
		MinSize:          c.Chunking.MinSize,
		Unit:             unit,
		MergeAcrossKinds: c.Chunking.MergeAcrossKinds,
		DropTruncated:    c.Chunking.DropTruncated,
	}
	if err := cc.Budget().Validate(); err != nil {
		return chunker.Config{}, err
	}
	return cc, nil
}

// Engines builds the chunking engines described by the configuration
func (c *Config) Engines() (*chunker.Engines, error) {
	cc, err := c.ChunkerConfig()
	if err != nil {
		return nil, err
	}
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	return chunker.NewEngines(cc, reg)
}

// ExpandPath resolves a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsUnknownLanguage reports whether err is an unknown language failure
func IsUnknownLanguage(err error) bool {
	return errors.Is(err, types.ErrUnknownLanguage)
}
