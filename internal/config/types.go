package config

import (
	"time"

	"github.com/nibzard/nextask/internal/store"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// Storage backends.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Default values.
const (
	DefaultDataDir        = "~/.nextask"
	DefaultStorage        = StorageFile
	DefaultStorageKey     = store.DefaultStorageKey
	DefaultStorageQuota   = 5 * 1024 * 1024
	DefaultErrorTimeoutMS = 3000
	DefaultShakeTimeoutMS = 300
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config holds the full configuration for nextask.
type Config struct {
	// Storage
	DataDir           string `toml:"data_dir"`
	Storage           string `toml:"storage"`
	StorageKey        string `toml:"storage_key"`
	StorageQuotaBytes int64  `toml:"storage_quota_bytes"`

	// Message timing
	ErrorTimeoutMS int `toml:"error_timeout_ms"`
	ShakeTimeoutMS int `toml:"shake_timeout_ms"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Working directory (computed)
	ProjectRoot string `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_dir",
		"storage",
		"storage_key",
		"storage_quota_bytes",
		"error_timeout_ms",
		"shake_timeout_ms",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// ErrorTimeout returns how long validation messages stay visible.
func (c *Config) ErrorTimeout() time.Duration {
	return time.Duration(c.ErrorTimeoutMS) * time.Millisecond
}

// ShakeTimeout returns how long the input shake flag stays set.
func (c *Config) ShakeTimeout() time.Duration {
	return time.Duration(c.ShakeTimeoutMS) * time.Millisecond
}
