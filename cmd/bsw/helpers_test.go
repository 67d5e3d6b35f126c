package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git/gittest"
)

// runCLI executes bsw with args against cfg and returns stdout and stderr.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return stdout.String(), stderr.String(), err
}

// testConfig returns defaults with parents as parent_paths and stats in a
// temp file.
func testConfig(t *testing.T, parents ...string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.ParentPaths = parents
	cfg.Identity = "tester"
	cfg.Stats.Path = filepath.Join(t.TempDir(), "share", "stats.json")
	cfg.Stats.BaseDelayMS = 1
	return &cfg
}

// workspace creates an origin with main and feature, and one clone of it
// per name inside a fresh directory. Returns the clone paths in order.
func workspace(t *testing.T, names ...string) (repos []string, origin string) {
	t.Helper()

	_, origin = gittest.NewClone(t)
	gittest.PushBranch(t, origin, "feature")

	dir := gittest.TempDir(t)
	for _, name := range names {
		repos = append(repos, gittest.CloneInto(t, origin, filepath.Join(dir, name)))
	}
	return repos, origin
}
