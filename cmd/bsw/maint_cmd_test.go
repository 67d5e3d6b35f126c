package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/raphi011/bsw/internal/git/gittest"
	"github.com/raphi011/bsw/internal/maint"
	"github.com/raphi011/bsw/internal/stats"
)

func TestRepair_RemovesStaleLocks(t *testing.T) {
	t.Parallel()

	repos, _ := workspace(t, "client")
	repo := repos[0]
	lock := filepath.Join(repo, ".git", "index.lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runCLI(t, testConfig(t, repos...), "repair")
	if err != nil {
		t.Fatalf("repair failed: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(lock); !os.IsNotExist(err) {
		t.Errorf("stale lock still present: %v", err)
	}
	if !strings.Contains(ansi.Strip(stdout), "healthy") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRepair_NotARepository(t *testing.T) {
	t.Parallel()
	gittest.SkipWithoutGit(t)

	dir := gittest.TempDir(t)

	stdout, _, err := runCLI(t, testConfig(t), "repair", dir)
	if err == nil {
		t.Fatal("repair of a plain directory succeeded")
	}
	if !strings.Contains(err.Error(), "1 of 1 repositories need attention") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(stdout, maint.ReasonNotFound) {
		t.Errorf("stdout missing reason:\n%s", stdout)
	}
}

func TestGC_ReportsSizes(t *testing.T) {
	t.Parallel()

	repos, _ := workspace(t, "client")
	cfg := testConfig(t, repos...)

	stdout, stderr, err := runCLI(t, cfg, "gc")
	if err != nil {
		t.Fatalf("gc failed: %v\n%s", err, stderr)
	}
	plain := ansi.Strip(stdout)
	for _, col := range []string{"BEFORE", "AFTER", "SAVED", "client"} {
		if !strings.Contains(plain, col) {
			t.Errorf("stdout missing %s:\n%s", col, plain)
		}
	}

	// Stats only record freed space; never a switch.
	totals := stats.New(cfg.Stats.StoreConfig()).GetMyStats(context.Background(), "tester")
	if totals.Switches != 0 || totals.Duration != 0 {
		t.Errorf("gc recorded switch totals: %+v", totals)
	}
}

func TestCountUnhealthy(t *testing.T) {
	t.Parallel()

	reports := []maint.Report{{OK: true}, {OK: false}, {OK: false}}
	if got := countUnhealthy(reports); got != 2 {
		t.Errorf("countUnhealthy() = %d, want 2", got)
	}
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	if got := lastLine(nil); got != "" {
		t.Errorf("lastLine(nil) = %q", got)
	}
	if got := lastLine([]string{"a", "b"}); got != "b" {
		t.Errorf("lastLine() = %q, want b", got)
	}
}

func TestRunMaintenance_StopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	reports, err := runMaintenance(ctx, new(strings.Builder), testConfig(t), []string{"/a", "/b"}, "gc",
		func(context.Context, *maint.Maintainer, string) maint.Report {
			calls++
			return maint.Report{OK: true}
		})
	if err == nil {
		t.Error("want context error")
	}
	if calls != 0 || len(reports) != 0 {
		t.Errorf("ran %d operations after cancellation", calls)
	}
}
