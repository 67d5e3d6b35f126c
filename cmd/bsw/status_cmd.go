package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/ui/styles"
)

// repoStatus is one row of "bsw status".
type repoStatus struct {
	Repo   string `json:"repo"`
	Path   string `json:"path"`
	Branch string `json:"branch"`
	Dirty  bool   `json:"dirty"`
}

func newStatusCmd() *cobra.Command {
	var (
		repos      []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the current branch of every repository",
		Aliases: []string{"st"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Example: `  bsw status          # Table of repositories, branches and local changes
  bsw status --json   # Same as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			targets, err := targetRepos(ctx, cfg, repos)
			if err != nil {
				return err
			}

			statuses, err := collectStatus(ctx, git.ExecRunner{}, cfg, targets)
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(statuses)
			}

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				rows = append(rows, []string{s.Repo, styles.Branch(s.Branch), styles.Dirty(s.Dirty)})
			}
			out.Table([]string{"REPO", "BRANCH", "CHANGES"}, rows)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository path (repeatable; default: configured repositories)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagDirname("repo")

	return cmd
}

// collectStatus queries all repositories in parallel, bounded by the
// configured parallelism. Results keep the order of repos.
func collectStatus(ctx context.Context, r git.Runner, cfg *config.Config, repos []string) ([]repoStatus, error) {
	statuses := make([]repoStatus, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallel, 1))
	for i, repo := range repos {
		g.Go(func() error {
			statuses[i] = repoStatus{
				Repo:   displayName(cfg, repo),
				Path:   repo,
				Branch: git.CurrentBranch(gctx, r, repo),
				Dirty:  git.HasLocalChanges(gctx, r, repo),
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}
