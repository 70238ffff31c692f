package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# NexTask configuration file
# Values can be overridden by NEXTASK_* environment variables or CLI flags

# Directory holding the persisted task list (supports ~ expansion)
data_dir = "~/.nextask"

# Storage backend: "file" persists across runs, "memory" keeps tasks for
# the current process only
storage = "file"

# Key of the persisted task list; stored as <data_dir>/<storage_key>.json
storage_key = "nextask-storage"

# Maximum persisted size in bytes (0 disables the limit)
storage_quota_bytes = 5242880

# Milliseconds before a validation message clears itself
error_timeout_ms = 3000

# Milliseconds the input stays highlighted after a rejected add
shake_timeout_ms = 300

# Logging
# log_dir = "~/.nextask/logs"
log_level = "info"
log_format = "text"   # text, json, or logfmt
log_timestamps = false
log_caller = false
`
}
