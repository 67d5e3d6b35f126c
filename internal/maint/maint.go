package maint

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raphi011/bsw/internal/cmd"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
)

const pruneTimeout = 60 * time.Second

// ReasonNotFound is logged when the path has no .git directory.
const ReasonNotFound = "repository not found"

// Report is the outcome of a maintenance run.
type Report struct {
	Repo       string
	OK         bool
	SizeBefore int64
	SizeAfter  int64
	Freed      int64  // max(0, SizeBefore-SizeAfter)
	Saved      string // Freed rendered by FormatSize
	Log        []string
	Elapsed    time.Duration
}

func (r *Report) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Maintainer runs repair and gc through a git Runner.
type Maintainer struct {
	runner  git.Runner
	measure func(path string) int64
}

// New creates a Maintainer. A nil runner uses git.ExecRunner.
func New(r git.Runner) *Maintainer {
	if r == nil {
		r = git.ExecRunner{}
	}
	return &Maintainer{runner: r, measure: DirSize}
}

// Repair deletes stale lock files under .git and checks repository integrity.
func (m *Maintainer) Repair(ctx context.Context, repoPath string) Report {
	start := time.Now()
	rep := Report{Repo: repoPath}
	defer func() { log.FromContext(ctx).Debug("repair finished", "repo", repoPath, "ok", rep.OK) }()

	gitDir := filepath.Join(repoPath, git.MetadataDir)
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		rep.logf("%s: %s", ReasonNotFound, gitDir)
		rep.Elapsed = time.Since(start)
		return rep
	}

	for _, lock := range findLockFiles(gitDir) {
		rel, _ := filepath.Rel(gitDir, lock)
		if err := os.Remove(lock); err != nil {
			rep.logf("could not delete %s: %v", rel, err)
			continue
		}
		rep.logf("deleted %s", rel)
	}

	rep.logf("[fsck] git fsck --full --no-progress (no time limit)")
	res := m.runner.Git(ctx, repoPath, cmd.NoTimeout, "fsck", "--full", "--no-progress")
	if res.OK() {
		rep.OK = true
		rep.logf("Healthy")
	} else {
		rep.logf("%s", diagnostic(res))
	}

	rep.Elapsed = time.Since(start)
	return rep
}

// findLockFiles returns every regular *.lock file beneath dir.
// Unreadable subdirectories are skipped.
func findLockFiles(dir string) []string {
	var locks []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ".lock") {
			locks = append(locks, path)
		}
		return nil
	})
	return locks
}

// GarbageCollect prunes stale remote refs and compacts the object store.
// aggressive requests gc --aggressive, which is much slower.
func (m *Maintainer) GarbageCollect(ctx context.Context, repoPath string, aggressive bool) Report {
	start := time.Now()
	rep := Report{Repo: repoPath, Saved: FormatSize(0)}

	gitDir := filepath.Join(repoPath, git.MetadataDir)
	rep.SizeBefore = m.measure(gitDir)
	rep.logf("size before: %s", FormatSize(rep.SizeBefore))

	rep.logf("[prune] git remote prune origin")
	if res := m.runner.Git(ctx, repoPath, pruneTimeout, "remote", "prune", "origin"); !res.OK() {
		rep.logf("[prune] failed (continuing): %s", diagnostic(res))
	}

	args := []string{"gc", "--prune=now"}
	if aggressive {
		args = append(args, "--aggressive")
	}
	rep.logf("[gc] git %s (no time limit)", strings.Join(args, " "))

	res := m.runner.Git(ctx, repoPath, cmd.NoTimeout, args...)
	if !res.OK() {
		rep.logf("[gc] failed: %s", diagnostic(res))
		rep.SizeAfter = rep.SizeBefore
		rep.Elapsed = time.Since(start)
		return rep
	}

	rep.SizeAfter = m.measure(gitDir)
	rep.Freed = FreedBytes(rep.SizeBefore, rep.SizeAfter)
	rep.Saved = FormatSize(rep.Freed)
	rep.OK = true
	rep.logf("done: freed %s (%s -> %s)", rep.Saved, FormatSize(rep.SizeBefore), FormatSize(rep.SizeAfter))

	rep.Elapsed = time.Since(start)
	return rep
}

func diagnostic(res cmd.Result) string {
	out := strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
	if res.Status != cmd.Completed {
		if out == "" {
			return res.Status.String()
		}
		return res.Status.String() + ": " + out
	}
	if out == "" {
		return fmt.Sprintf("exit status %d", res.ExitCode)
	}
	return out
}

// FreedBytes returns before-after, never less than zero. gc can grow .git
// when it writes a fresh pack before dropping loose objects.
func FreedBytes(before, after int64) int64 {
	return max(0, before-after)
}

// DirSize returns the total size of all regular files under path.
// Missing paths and unreadable entries count as zero.
func DirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders bytes with binary units and one decimal place. It
// divides by 1024 as long as the next quotient rounds (half to even) to at
// least one, so 600 bytes is "0.6KB" and 400 is "400.0B".
func FormatSize(bytes int64) string {
	n := float64(bytes)
	unit := 0
	for unit < len(sizeUnits)-1 && math.RoundToEven(n/1024) >= 1 {
		n /= 1024
		unit++
	}
	return strconv.FormatFloat(n, 'f', 1, 64) + sizeUnits[unit]
}
