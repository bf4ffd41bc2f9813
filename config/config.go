package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glacya/memfs/internal/util"
)

// Bytes per MB
const MB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	// Uses 31 bits (2^31 - 1 = 2,147,483,647) so descriptor numbers stay
	// within a signed 32-bit int on every platform. This allows over 2
	// billion simultaneously open descriptors per context, which in
	// practice means the cap only trips when a caller leaks descriptors.
	DefaultMaxOpenFiles = (1 << 31) - 1

	// DefaultMaxFileSize is the upper bound on a single file's byte length
	DefaultMaxFileSize = 1024 * MB

	// DefaultLogLvl is the log level used when none is configured
	DefaultLogLvl = util.InfoLevel
)

// Config contains runtime configuration values for the filesystem.
type Config struct {
	LogLvl       util.LogLevel // Minimum level emitted by the global logger (Default info)
	MaxOpenFiles int           // Per-context cap on simultaneously open descriptors; 0 means unlimited (Default 2147483647)
	MaxFileSize  int           // Upper bound on a single file's byte length; 0 means unlimited (Default 1GB)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	LogLvl       *util.LogLevel `yaml:"log_lvl,omitempty" json:"log_lvl,omitempty"`
	MaxOpenFiles *int           `yaml:"max_open_files,omitempty" json:"max_open_files,omitempty"`
	MaxFileSize  *int           `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:       DefaultLogLvl,
		MaxOpenFiles: DefaultMaxOpenFiles,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// NewConfig creates a Config from defaults with the override applied on top.
// A nil override yields the defaults unchanged.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = *override.LogLvl
	}
	if override.MaxOpenFiles != nil {
		c.MaxOpenFiles = *override.MaxOpenFiles
	}
	if override.MaxFileSize != nil {
		c.MaxFileSize = *override.MaxFileSize
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
