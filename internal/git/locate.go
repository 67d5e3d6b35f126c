package git

import (
	"os"
	"path/filepath"
	"sort"
)

// MetadataDir is the marker that identifies a repository root.
const MetadataDir = ".git"

// Locate walks from startPath up through its ancestors and returns the first
// directory that directly contains .git. Returns false when the filesystem
// root is reached without a match.
func Locate(startPath string) (string, bool) {
	dir, err := filepath.Abs(startPath)
	if err != nil {
		return "", false
	}

	for {
		if isGitRepo(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// isGitRepo checks if a path is a git repository (has .git dir or file)
func isGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, MetadataDir))
	if err != nil {
		return false
	}
	// .git can be a directory (regular repo) or file (worktree, submodule)
	return info.IsDir() || info.Mode().IsRegular()
}

// FindRepos returns the repositories found by joining every sub directory
// onto every parent. Parents are project checkouts; sub directories name
// nested repositories inside them ("" is the checkout itself). A candidate
// counts only if it directly contains .git. The result is sorted and free of
// duplicates.
func FindRepos(parents, subDirs []string) []string {
	if len(subDirs) == 0 {
		subDirs = []string{""}
	}

	seen := make(map[string]bool)
	var roots []string
	for _, parent := range parents {
		for _, sub := range subDirs {
			candidate := filepath.Clean(filepath.Join(parent, filepath.FromSlash(sub)))
			if seen[candidate] || !isGitRepo(candidate) {
				continue
			}
			seen[candidate] = true
			roots = append(roots, candidate)
		}
	}

	sort.Strings(roots)
	return roots
}
