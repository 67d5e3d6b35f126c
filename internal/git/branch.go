package git

import (
	"context"
	"sort"
	"strings"
	"time"
)

const queryTimeout = 15 * time.Second
const refsTimeout = 20 * time.Second

// CurrentBranch returns a display name for HEAD: the branch name, or
// "(detached @abc1234)" for a detached HEAD, or "(unknown)" when git cannot
// tell.
func CurrentBranch(ctx context.Context, r Runner, repoPath string) string {
	if res := r.Git(ctx, repoPath, queryTimeout, "branch", "--show-current"); res.OK() {
		if b := strings.TrimSpace(res.Stdout); b != "" {
			return b
		}
	}
	if res := r.Git(ctx, repoPath, queryTimeout, "rev-parse", "--abbrev-ref", "HEAD"); res.OK() {
		if b := strings.TrimSpace(res.Stdout); b != "" && b != "HEAD" {
			return b
		}
	}
	if res := r.Git(ctx, repoPath, queryTimeout, "rev-parse", "--short=7", "HEAD"); res.OK() {
		if sha := strings.TrimSpace(res.Stdout); sha != "" {
			return "(detached @" + sha + ")"
		}
	}
	return "(unknown)"
}

// AllBranches returns local branches plus branches on origin (without the
// "origin/" prefix and without origin/HEAD). Names are de-duplicated
// case-insensitively, keeping the first spelling seen, and sorted.
func AllBranches(ctx context.Context, r Runner, repoPath string) []string {
	seen := make(map[string]bool)
	var branches []string

	add := func(name string) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		branches = append(branches, name)
	}

	if res := r.Git(ctx, repoPath, refsTimeout, "for-each-ref", "--format=%(refname:short)", "refs/heads"); res.OK() {
		for _, line := range splitLines(res.Stdout) {
			add(line)
		}
	}
	if res := r.Git(ctx, repoPath, refsTimeout, "for-each-ref", "--format=%(refname:short)", "refs/remotes/origin"); res.OK() {
		for _, line := range splitLines(res.Stdout) {
			if strings.HasSuffix(strings.ToLower(line), "/head") || line == "origin" {
				continue
			}
			if _, name, ok := strings.Cut(line, "/"); ok {
				add(name)
			} else {
				add(line)
			}
		}
	}

	sort.Slice(branches, func(i, j int) bool {
		return strings.ToLower(branches[i]) < strings.ToLower(branches[j])
	})
	return branches
}

// HasLocalChanges reports whether the working tree has staged, unstaged or
// untracked changes. A failing status probe counts as clean.
func HasLocalChanges(ctx context.Context, r Runner, repoPath string) bool {
	res := r.Git(ctx, repoPath, queryTimeout, "status", "--porcelain")
	return res.OK() && strings.TrimSpace(res.Stdout) != ""
}

// LocalBranchExists reports whether refs/heads/<branch> exists.
func LocalBranchExists(ctx context.Context, r Runner, repoPath, branch string) bool {
	return r.Git(ctx, repoPath, refsTimeout, "show-ref", "--verify", "--quiet", "refs/heads/"+branch).OK()
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
