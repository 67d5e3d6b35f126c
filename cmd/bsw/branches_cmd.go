package main

import (
	"context"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/output"
)

func newBranchesCmd() *cobra.Command {
	var (
		repos      []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "branches [filter]",
		Short:   "List branches available across all repositories",
		Aliases: []string{"br"},
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `List local and origin branches of all repositories, merged and sorted.

With a filter, branches are fuzzy-matched and ordered by match quality.`,
		Example: `  bsw branches            # All branches
  bsw branches rel20      # Fuzzy match, e.g. release/2.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			targets, err := targetRepos(ctx, cfg, repos)
			if err != nil {
				return err
			}

			branches, err := collectBranches(ctx, git.ExecRunner{}, cfg.Parallel, targets)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				branches = fuzzyFilter(args[0], branches)
			}

			if jsonOutput {
				return out.JSON(branches)
			}
			for _, b := range branches {
				out.Println(b)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository path (repeatable; default: configured repositories)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagDirname("repo")

	return cmd
}

// collectBranches returns the union of git.AllBranches over repos,
// de-duplicated case-insensitively and sorted.
func collectBranches(ctx context.Context, r git.Runner, limit int, repos []string) ([]string, error) {
	lists := make([][]string, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, repo := range repos {
		g.Go(func() error {
			lists[i] = git.AllBranches(gctx, r, repo)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeBranches(lists...), nil
}

// mergeBranches unions branch lists; the first spelling of a name wins.
func mergeBranches(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, b := range list {
			key := strings.ToLower(b)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, b)
		}
	}
	slices.SortFunc(merged, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return merged
}

// fuzzyFilter returns the branches matching pattern, best match first.
func fuzzyFilter(pattern string, branches []string) []string {
	matches := fuzzy.Find(pattern, branches)
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.Str)
	}
	return result
}
