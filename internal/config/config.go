package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/bsw/internal/stats"
	"github.com/raphi011/bsw/internal/storage"
)

// Environment variables consulted by Load.
const (
	EnvConfig    = "BSW_CONFIG"
	EnvStatsPath = "BSW_STATS_PATH"
)

// DefaultParallel is the default number of repositories switched at once.
const DefaultParallel = 16

// StatsConfig holds the shared stats file settings.
type StatsConfig struct {
	Path            string `toml:"path" json:"path"`
	MaxRetries      int    `toml:"max_retries" json:"max_retries"`
	BaseDelayMS     int    `toml:"base_delay_ms" json:"base_delay_ms"`
	MaxDelayMS      int    `toml:"max_delay_ms" json:"max_delay_ms"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

// Config holds the bsw configuration
type Config struct {
	Parallel      int         `toml:"parallel" json:"parallel"`
	StashOnSwitch bool        `toml:"stash_on_switch" json:"stash_on_switch"`
	FastMode      bool        `toml:"fast_mode" json:"fast_mode"`
	ParentPaths   []string    `toml:"parent_paths" json:"parent_paths"`
	SubDirs       []string    `toml:"sub_dirs" json:"sub_dirs"`
	Identity      string      `toml:"identity" json:"identity"`
	Stats         StatsConfig `toml:"stats" json:"stats"`

	// Source is the file the config was loaded from, empty for defaults.
	Source string `toml:"-" json:"source,omitempty"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Parallel:      DefaultParallel,
		StashOnSwitch: true,
		SubDirs:       []string{""},
		Stats: StatsConfig{
			MaxRetries:      stats.DefaultMaxRetries,
			BaseDelayMS:     int(stats.DefaultBaseDelay / time.Millisecond),
			CacheTTLSeconds: int(stats.DefaultCacheTTL / time.Second),
		},
	}
}

// StoreConfig converts the [stats] section into a stats store configuration.
func (s StatsConfig) StoreConfig() stats.Config {
	return stats.Config{
		Path:       s.Path,
		MaxRetries: s.MaxRetries,
		BaseDelay:  time.Duration(s.BaseDelayMS) * time.Millisecond,
		MaxDelay:   time.Duration(s.MaxDelayMS) * time.Millisecond,
		CacheTTL:   time.Duration(s.CacheTTLSeconds) * time.Second,
	}
}

// ResolvedIdentity returns the configured identity, falling back to the
// OS user name.
func (c *Config) ResolvedIdentity() string {
	if c.Identity != "" {
		return c.Identity
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// Path returns the config file location: $BSW_CONFIG if set, otherwise
// ~/.config/bsw/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return expandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bsw", "config.toml"), nil
}

// Load reads the config from Path().
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, applies environment overrides,
// validates it and expands ~ in every path.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.Source = path
	}

	if p := os.Getenv(EnvStatsPath); p != "" {
		cfg.Stats.Path = p
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	if err := cfg.expand(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks value ranges and path forms.
func (c *Config) Validate() error {
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	for i, p := range c.ParentPaths {
		if p == "" {
			return fmt.Errorf("parent_paths[%d] must not be empty", i)
		}
		if err := ValidatePath(p, fmt.Sprintf("parent_paths[%d]", i)); err != nil {
			return err
		}
	}
	for i, d := range c.SubDirs {
		if err := validateSubDir(d); err != nil {
			return fmt.Errorf("sub_dirs[%d]: %w", i, err)
		}
	}
	if err := ValidatePath(c.Stats.Path, "stats.path"); err != nil {
		return err
	}

	for _, f := range []struct {
		name  string
		value int
	}{
		{"stats.max_retries", c.Stats.MaxRetries},
		{"stats.base_delay_ms", c.Stats.BaseDelayMS},
		{"stats.max_delay_ms", c.Stats.MaxDelayMS},
		{"stats.cache_ttl_seconds", c.Stats.CacheTTLSeconds},
	} {
		if f.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", f.name, f.value)
		}
	}
	return nil
}

// validateSubDir accepts "" (the parent itself) and relative paths that
// stay inside the parent.
func validateSubDir(d string) error {
	if d == "" {
		return nil
	}
	if filepath.IsAbs(d) {
		return fmt.Errorf("must be relative, got %q", d)
	}
	clean := filepath.Clean(filepath.FromSlash(d))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("must not leave the parent directory, got %q", d)
	}
	return nil
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

func (c *Config) expand() error {
	for i, p := range c.ParentPaths {
		expanded, err := expandPath(p)
		if err != nil {
			return fmt.Errorf("expand parent_paths[%d]: %w", i, err)
		}
		c.ParentPaths[i] = expanded
	}
	expanded, err := expandPath(c.Stats.Path)
	if err != nil {
		return fmt.Errorf("expand stats.path: %w", err)
	}
	c.Stats.Path = expanded

	if len(c.SubDirs) == 0 {
		c.SubDirs = []string{""}
	}
	c.SubDirs = slices.Compact(c.SubDirs)
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

const defaultConfig = `# bsw configuration

# Maximum number of repositories switched at the same time (min 1)
parallel = 16

# Stash local changes before switching and restore them afterwards.
# When false, local changes are DISCARDED (git reset --hard, git clean -fd).
stash_on_switch = true

# Skip fetch and pull; keep untracked files when discarding.
fast_mode = false

# Directories holding your working copies.
# Must be absolute paths or start with ~
# parent_paths = ["~/work/game", "/mnt/d/projects/game"]

# Subdirectories of each parent that are repositories of their own.
# "" means the parent itself.
# sub_dirs = ["", "Assets/Scripts", "Packages/shared"]

# Name recorded in the shared stats (default: OS user name)
# identity = "alice"

# Shared usage statistics, usually on a network drive.
# Leave path empty to disable.
[stats]
# path = "/mnt/share/bsw/stats.json"
max_retries = 10
base_delay_ms = 50
max_delay_ms = 0
cache_ttl_seconds = 30
`

// DefaultConfig returns the commented default config file content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at Path().
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists: %s (use -f to overwrite)", path)
		}
	}

	if err := storage.WriteAtomic(path, []byte(defaultConfig), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type ctxKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config stored in ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	d := Default()
	return &d
}
