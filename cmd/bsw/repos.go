package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
)

var errNoRepos = errors.New("no repositories found: set parent_paths in the config or run inside a repository")

// targetRepos resolves the repositories a command works on. Explicit paths
// win; each is resolved to the root of the repository containing it, or
// kept as given when it is not inside one so the workflow can report it.
// Without explicit paths the configured parent_paths x sub_dirs are used,
// and failing that the repository containing the working directory.
func targetRepos(ctx context.Context, cfg *config.Config, explicit []string) ([]string, error) {
	l := log.FromContext(ctx)

	if len(explicit) > 0 {
		var repos []string
		for _, p := range explicit {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", p, err)
			}
			if root, ok := git.Locate(abs); ok {
				abs = root
			} else {
				l.Debug("not inside a repository", "path", abs)
			}
			if !slices.Contains(repos, abs) {
				repos = append(repos, abs)
			}
		}
		return repos, nil
	}

	if repos := git.FindRepos(cfg.ParentPaths, cfg.SubDirs); len(repos) > 0 {
		l.Debug("found repositories", "count", len(repos), "parents", len(cfg.ParentPaths))
		return repos, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if root, ok := git.Locate(wd); ok {
		return []string{root}, nil
	}
	return nil, errNoRepos
}

// displayName shortens a repository path for tables: relative to the
// configured parent containing it, otherwise the base name plus parent.
func displayName(cfg *config.Config, repo string) string {
	for _, parent := range cfg.ParentPaths {
		rel, err := filepath.Rel(parent, repo)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			return filepath.Base(repo)
		}
		return filepath.ToSlash(rel)
	}
	return filepath.Base(repo)
}
