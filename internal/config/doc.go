// Package config handles loading and validation of bsw configuration.
//
// Configuration is read from ~/.config/bsw/config.toml, or from the file
// named by BSW_CONFIG. A missing file yields the defaults.
//
// # Configuration Sources (highest priority first)
//
//   - BSW_STATS_PATH env var: shared stats file
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - parallel: repositories switched at once (default 16)
//   - stash_on_switch: stash local changes instead of discarding them (default true)
//   - fast_mode: skip fetch and pull, keep untracked files
//   - parent_paths: directories holding the working copies (absolute or ~/...)
//   - sub_dirs: relative subdirectories probed for nested repositories
//   - identity: name recorded in the shared stats (default: OS user)
//
// The [stats] section configures the shared stats file:
//
//	[stats]
//	path = "/mnt/share/bsw/stats.json"
//	max_retries = 10
//	base_delay_ms = 50
//	cache_ttl_seconds = 30
package config
