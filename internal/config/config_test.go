package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/bsw/internal/stats"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Parallel != DefaultParallel {
		t.Errorf("Parallel = %d, want %d", cfg.Parallel, DefaultParallel)
	}
	if !cfg.StashOnSwitch {
		t.Error("StashOnSwitch = false, want true")
	}
	if cfg.FastMode {
		t.Error("FastMode = true, want false")
	}
	if diff := cmp.Diff([]string{""}, cfg.SubDirs); diff != "" {
		t.Errorf("SubDirs mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", cfg.Source)
	}
	if cfg.Parallel != DefaultParallel {
		t.Errorf("Parallel = %d, want %d", cfg.Parallel, DefaultParallel)
	}
}

func TestLoadFile_Full(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	path := writeConfig(t, `
parallel = 4
stash_on_switch = false
fast_mode = true
parent_paths = ["~/work", "/srv/game"]
sub_dirs = ["", "Assets/Scripts"]
identity = "alice"

[stats]
path = "/mnt/share/stats.json"
max_retries = 3
base_delay_ms = 20
max_delay_ms = 500
cache_ttl_seconds = 5
`)

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want := Config{
		Parallel:      4,
		StashOnSwitch: false,
		FastMode:      true,
		ParentPaths:   []string{filepath.Join(home, "work"), "/srv/game"},
		SubDirs:       []string{"", "Assets/Scripts"},
		Identity:      "alice",
		Stats: StatsConfig{
			Path:            "/mnt/share/stats.json",
			MaxRetries:      3,
			BaseDelayMS:     20,
			MaxDelayMS:      500,
			CacheTTLSeconds: 5,
		},
		Source: path,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	got, err := LoadFile(writeConfig(t, `fast_mode = true`))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !got.FastMode {
		t.Error("FastMode = false, want true")
	}
	if !got.StashOnSwitch {
		t.Error("StashOnSwitch lost its default")
	}
	if got.Parallel != DefaultParallel {
		t.Errorf("Parallel = %d, want %d", got.Parallel, DefaultParallel)
	}
	if got.Stats.MaxRetries != stats.DefaultMaxRetries {
		t.Errorf("Stats.MaxRetries = %d, want %d", got.Stats.MaxRetries, stats.DefaultMaxRetries)
	}
}

func TestLoadFile_EmptySubDirsMeansParent(t *testing.T) {
	t.Parallel()

	got, err := LoadFile(writeConfig(t, `sub_dirs = []`))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff([]string{""}, got.SubDirs); diff != "" {
		t.Errorf("SubDirs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", `parallel = `, "failed to parse"},
		{"wrong type", `parallel = "many"`, "failed to parse"},
		{"zero parallel", `parallel = 0`, "parallel must be at least 1"},
		{"relative parent", `parent_paths = ["work"]`, "parent_paths[0] must be absolute"},
		{"empty parent", `parent_paths = [""]`, "parent_paths[0] must not be empty"},
		{"absolute sub dir", `sub_dirs = ["/abs"]`, "must be relative"},
		{"escaping sub dir", `sub_dirs = ["../other"]`, "must not leave"},
		{"relative stats path", "[stats]\npath = \"stats.json\"", "stats.path must be absolute"},
		{"negative retries", "[stats]\nmax_retries = -1", "stats.max_retries must not be negative"},
		{"negative ttl", "[stats]\ncache_ttl_seconds = -5", "stats.cache_ttl_seconds must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadFile(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("LoadFile() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %q, want containing %q", err, tt.wantErr)
			}
			if cfg.Parallel != DefaultParallel {
				t.Errorf("LoadFile() on error should return defaults, got Parallel=%d", cfg.Parallel)
			}
		})
	}
}

func TestLoadFile_StatsPathFromEnv(t *testing.T) {
	t.Setenv(EnvStatsPath, "/mnt/override/stats.json")

	got, err := LoadFile(writeConfig(t, "[stats]\npath = \"/mnt/share/stats.json\""))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got.Stats.Path != "/mnt/override/stats.json" {
		t.Errorf("Stats.Path = %q, want env override", got.Stats.Path)
	}
}

func TestPath_FromEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv(EnvConfig, want)

	got, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv(EnvConfig, path)

	got, err := Init(false)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got != path {
		t.Errorf("Init() path = %q, want %q", got, path)
	}

	if _, err := Init(false); err == nil {
		t.Error("second Init() without force succeeded")
	}
	if _, err := Init(true); err != nil {
		t.Errorf("Init(force) error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() of generated config error = %v", err)
	}
	if diff := cmp.Diff(Default().Stats, cfg.Stats); diff != "" {
		t.Errorf("generated stats section mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultConfig_MatchesDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if _, err := toml.Decode(DefaultConfig(), &cfg); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}
	want := Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("commented default config disagrees with Default() (-want +got):\n%s", diff)
	}
}

func TestStoreConfig(t *testing.T) {
	t.Parallel()

	got := StatsConfig{
		Path:            "/mnt/share/stats.json",
		MaxRetries:      7,
		BaseDelayMS:     25,
		MaxDelayMS:      1000,
		CacheTTLSeconds: 10,
	}.StoreConfig()

	if got.Path != "/mnt/share/stats.json" || got.MaxRetries != 7 {
		t.Errorf("StoreConfig() = %+v", got)
	}
	if got.BaseDelay != 25*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 25ms", got.BaseDelay)
	}
	if got.MaxDelay != time.Second {
		t.Errorf("MaxDelay = %v, want 1s", got.MaxDelay)
	}
	if got.CacheTTL != 10*time.Second {
		t.Errorf("CacheTTL = %v, want 10s", got.CacheTTL)
	}
}

func TestResolvedIdentity(t *testing.T) {
	t.Parallel()

	cfg := Config{Identity: "alice"}
	if got := cfg.ResolvedIdentity(); got != "alice" {
		t.Errorf("ResolvedIdentity() = %q, want alice", got)
	}

	cfg.Identity = ""
	if got := cfg.ResolvedIdentity(); got == "" {
		t.Error("ResolvedIdentity() fallback is empty")
	}
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"", false},
		{"~", false},
		{"~/work", false},
		{"/abs/path", false},
		{".", true},
		{"../up", true},
		{"relative/dir", true},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.path, "field")
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	if got := FromContext(context.Background()); got.Parallel != DefaultParallel {
		t.Errorf("FromContext(empty) Parallel = %d, want default", got.Parallel)
	}

	cfg := &Config{Parallel: 3}
	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got != cfg {
		t.Errorf("FromContext() = %p, want %p", got, cfg)
	}
}
