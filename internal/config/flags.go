package config

import (
	"flag"
)

// flagToSource maps flag names to config field names.
var flagToSource = map[string]string{
	"data-dir":       "data_dir",
	"storage":        "storage",
	"storage-key":    "storage_key",
	"storage-quota":  "storage_quota_bytes",
	"error-timeout":  "error_timeout_ms",
	"shake-timeout":  "shake_timeout_ms",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines global flags on fs, bound directly to cfg, and parses
// args. If sources is non-nil, explicitly set flags are recorded.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("nextask", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding the persisted task list")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (file|memory)")
	fs.StringVar(&cfg.StorageKey, "storage-key", cfg.StorageKey, "Key of the persisted task list")
	fs.Int64Var(&cfg.StorageQuotaBytes, "storage-quota", cfg.StorageQuotaBytes, "Maximum persisted size in bytes (0 for unlimited)")

	// Message timing
	fs.IntVar(&cfg.ErrorTimeoutMS, "error-timeout", cfg.ErrorTimeoutMS, "Milliseconds before a validation message clears")
	fs.IntVar(&cfg.ShakeTimeoutMS, "shake-timeout", cfg.ShakeTimeoutMS, "Milliseconds the input stays highlighted after a rejected add")

	// Logging
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory (default <data-dir>/logs)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagToSource[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}

	return nil
}
