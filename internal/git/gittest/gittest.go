// Package gittest creates throwaway git repositories for tests.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raphi011/bsw/internal/cmd"
)

// SkipWithoutGit skips the test when git is not in PATH.
func SkipWithoutGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// TempDir creates a temp directory and resolves macOS symlinks.
func TempDir(t *testing.T) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	return resolved
}

// Git runs git in dir and fails the test on error. Returns trimmed stdout.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	res := cmd.Execute(context.Background(), dir, 30*time.Second, "git", args...)
	if !res.OK() {
		t.Fatalf("git %s failed: %s (status %v, exit %d)", strings.Join(args, " "), res.Output(), res.Status, res.ExitCode)
	}
	return strings.TrimSpace(res.Stdout)
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// configure sets user config and disables signing.
func configure(t *testing.T, repoPath string) {
	t.Helper()
	Git(t, repoPath, "config", "user.email", "test@test.com")
	Git(t, repoPath, "config", "user.name", "Test User")
	Git(t, repoPath, "config", "commit.gpgsign", "false")
}

// Commit writes name and commits it.
func Commit(t *testing.T, repoPath, name, content, msg string) {
	t.Helper()
	WriteFile(t, repoPath, name, content)
	Git(t, repoPath, "add", name)
	Git(t, repoPath, "commit", "-m", msg)
}

// NewRepo creates a repo on main with one commit and no remote.
func NewRepo(t *testing.T) string {
	t.Helper()
	SkipWithoutGit(t)

	repoPath := filepath.Join(TempDir(t), "repo")
	Git(t, "", "init", "-b", "main", repoPath)
	configure(t, repoPath)
	Commit(t, repoPath, "README.md", "# test\n", "Initial commit")
	return repoPath
}

// NewClone creates a bare origin with main and a clone of it.
// Returns (clonePath, originPath).
func NewClone(t *testing.T) (string, string) {
	t.Helper()
	SkipWithoutGit(t)

	tmp := TempDir(t)
	originPath := filepath.Join(tmp, "origin.git")
	seedPath := filepath.Join(tmp, "seed")
	clonePath := filepath.Join(tmp, "clone")

	Git(t, "", "init", "--bare", "-b", "main", originPath)
	Git(t, "", "init", "-b", "main", seedPath)
	configure(t, seedPath)
	Commit(t, seedPath, "README.md", "# test\n", "Initial commit")
	Git(t, seedPath, "remote", "add", "origin", originPath)
	Git(t, seedPath, "push", "-u", "origin", "main")

	Git(t, "", "clone", originPath, clonePath)
	configure(t, clonePath)
	return clonePath, originPath
}

// PushBranch creates branch on origin with one extra commit, using a
// temporary clone so the caller's clone does not know about it yet.
func PushBranch(t *testing.T, originPath, branch string) {
	t.Helper()

	work := filepath.Join(TempDir(t), "pusher")
	Git(t, "", "clone", originPath, work)
	configure(t, work)
	Git(t, work, "checkout", "-b", branch)
	Commit(t, work, branch+".txt", branch+"\n", "add "+branch)
	Git(t, work, "push", "-u", "origin", branch)
}

// CloneInto clones originPath to dest and returns dest.
func CloneInto(t *testing.T, originPath, dest string) string {
	t.Helper()

	Git(t, "", "clone", originPath, dest)
	configure(t, dest)
	return dest
}
