package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
)

// completeBranches completes branch names from the repositories the
// command would act on (honoring --repo).
func completeBranches(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.FromContext(ctx)

	repos, _ := cmd.Flags().GetStringSlice("repo")
	targets, err := targetRepos(ctx, cfg, repos)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	branches, err := collectBranches(ctx, git.ExecRunner{}, cfg.Parallel, targets)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var matches []string
	for _, b := range branches {
		if strings.HasPrefix(strings.ToLower(b), strings.ToLower(toComplete)) {
			matches = append(matches, b)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}
