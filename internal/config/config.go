package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	// FactsPath is the JSON document holding the fact collection (file backend).
	// Relative paths are resolved against the base directory.
	FactsPath string `json:"facts_path,omitempty" yaml:"facts_path,omitempty"`

	// Token is the shared secret required for writes. Empty disables writes.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Store selects the backend: file, sqlite, redis or memory.
	Store string `json:"store,omitempty" yaml:"store,omitempty"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`

	// RedisAddr and RedisKey locate the document for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisKey  string `json:"redis_key,omitempty" yaml:"redis_key,omitempty"`

	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// MaxDescriptionChars caps the length of a new fact, in runes. 0 disables the cap.
	MaxDescriptionChars int `json:"max_description_chars,omitempty" yaml:"max_description_chars,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// BaseDir is where relative paths and exports live. Not read from files.
	BaseDir string `json:"-" yaml:"-"`

	// maxCharsSet records that a file named max_description_chars, so an
	// explicit 0 survives Merge.
	maxCharsSet bool
}

// explicitFields holds fields whose zero value is meaningful in a file.
type explicitFields struct {
	MaxDescriptionChars *int `json:"max_description_chars" yaml:"max_description_chars"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FactsPath:           "facts.json",
		Store:               StoreFile,
		SQLitePath:          "facts.db",
		RedisAddr:           "localhost:6379",
		RedisKey:            "dogfacts:facts",
		Addr:                "127.0.0.1:8000",
		LogLevel:            "info",
		MaxDescriptionChars: 1000,
	}
}

// Load loads configuration from baseDir/config.json or baseDir/config.yaml
// (JSON wins if both exist). Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.dogfacts.
func Load(baseDir string) (*Config, error) {
	path := filepath.Join(baseDir, "config.json")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = filepath.Join(baseDir, "config.yaml")
	}
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = baseDir
	return cfg, nil
}

// LoadFile loads configuration from an explicit file path, which must exist.
// The file's directory becomes the base directory.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := unmarshalConfig(configPath, data, cfg); err != nil {
		return nil, err
	}

	var explicit explicitFields
	if err := unmarshalConfig(configPath, data, &explicit); err != nil {
		return nil, err
	}
	cfg.maxCharsSet = explicit.MaxDescriptionChars != nil

	return cfg, nil
}

// unmarshalConfig decodes data as YAML or JSON depending on the file extension.
func unmarshalConfig(configPath string, data []byte, v any) error {
	var err error
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", configPath, err)
	}
	return nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.FactsPath = pick(overlay.FactsPath, base.FactsPath)
	result.Token = pick(overlay.Token, base.Token)
	result.Store = pick(overlay.Store, base.Store)
	result.SQLitePath = pick(overlay.SQLitePath, base.SQLitePath)
	result.RedisAddr = pick(overlay.RedisAddr, base.RedisAddr)
	result.RedisKey = pick(overlay.RedisKey, base.RedisKey)
	result.Addr = pick(overlay.Addr, base.Addr)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)
	result.BaseDir = pick(overlay.BaseDir, base.BaseDir)

	// Ints: overlay wins if non-zero or explicitly set, else base
	if overlay.MaxDescriptionChars != 0 || overlay.maxCharsSet {
		result.MaxDescriptionChars = overlay.MaxDescriptionChars
		result.maxCharsSet = true
	} else {
		result.MaxDescriptionChars = base.MaxDescriptionChars
		result.maxCharsSet = base.maxCharsSet
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// envOverrides maps environment variables to the fields they set.
var envOverrides = []struct {
	name string
	set  func(*Config, string)
}{
	{"DOGFACTS_FACTS_PATH", func(c *Config, v string) { c.FactsPath = v }},
	{"DOGFACTS_TOKEN", func(c *Config, v string) { c.Token = v }},
	{"DOGFACTS_STORE", func(c *Config, v string) { c.Store = v }},
	{"DOGFACTS_SQLITE_PATH", func(c *Config, v string) { c.SQLitePath = v }},
	{"DOGFACTS_REDIS_ADDR", func(c *Config, v string) { c.RedisAddr = v }},
	{"DOGFACTS_ADDR", func(c *Config, v string) { c.Addr = v }},
	{"DOGFACTS_LOG_LEVEL", func(c *Config, v string) { c.LogLevel = v }},
}

// ApplyEnv overrides fields from environment variables. Unset or empty
// variables leave the field alone. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, o := range envOverrides {
		if v := strings.TrimSpace(getenv(o.name)); v != "" {
			o.set(c, v)
		}
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want file, sqlite, redis or memory)", c.Store)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.MaxDescriptionChars < 0 {
		return fmt.Errorf("max_description_chars must be non-negative")
	}
	return nil
}

// ResolvePath makes p absolute relative to the base directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// ExportsDir returns the default directory for import/export files.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.BaseDir, "exports")
}

// pick returns overlay if non-empty, else base.
func pick(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
