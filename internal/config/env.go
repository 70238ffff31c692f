package config

import (
	"fmt"
	"os"
	"strings"
)

// loadFromEnv overrides config from NEXTASK_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv("NEXTASK_DATA_DIR"); v != "" {
		cfg.DataDir = v
		set("data_dir")
	}
	if v := os.Getenv("NEXTASK_STORAGE"); v != "" {
		cfg.Storage = strings.ToLower(strings.TrimSpace(v))
		set("storage")
	}
	if v := os.Getenv("NEXTASK_STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
		set("storage_key")
	}
	if v := os.Getenv("NEXTASK_STORAGE_QUOTA"); v != "" {
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.StorageQuotaBytes = n
			set("storage_quota_bytes")
		}
	}
	if v := os.Getenv("NEXTASK_ERROR_TIMEOUT_MS"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.ErrorTimeoutMS = i
			set("error_timeout_ms")
		}
	}
	if v := os.Getenv("NEXTASK_SHAKE_TIMEOUT_MS"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.ShakeTimeoutMS = i
			set("shake_timeout_ms")
		}
	}

	// Logging configuration
	if v := os.Getenv("NEXTASK_LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}
	if v := os.Getenv("NEXTASK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("NEXTASK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("NEXTASK_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("NEXTASK_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
		set("log_caller")
	}
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
