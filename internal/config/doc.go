// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.nextask/nextask.toml or OS-specific config directory)
// 3. Project config file (nextask.toml or .nextask.toml in the working directory)
// 4. Environment variables (NEXTASK_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.nextask/nextask.toml (preferred)
// - Windows: %APPDATA%\nextask\nextask.toml
// - macOS: ~/Library/Application Support/nextask/nextask.toml
// - Linux/BSD: $XDG_CONFIG_HOME/nextask/nextask.toml or ~/.config/nextask/nextask.toml
package config
