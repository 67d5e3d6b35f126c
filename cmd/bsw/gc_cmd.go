package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/log"
	"github.com/raphi011/bsw/internal/maint"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/stats"
	"github.com/raphi011/bsw/internal/ui/styles"
)

func newGCCmd() *cobra.Command {
	var aggressive bool

	cmd := &cobra.Command{
		Use:     "gc [path...]",
		Short:   "Prune remote branches and compact repositories",
		GroupID: GroupMaintenance,
		Long: `Run "git remote prune origin" and "git gc --prune=now" and report the
space freed in .git. gc has no time limit; press Ctrl-C to stop.

Freed space is added to your total in the shared stats.
Without paths, every configured repository is compacted.`,
		Example: `  bsw gc                         # All configured repositories
  bsw gc --aggressive ~/work/client`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			targets, err := targetRepos(ctx, cfg, args)
			if err != nil {
				return err
			}

			reports, runErr := runMaintenance(ctx, cmd.ErrOrStderr(), cfg, targets, "gc",
				func(ctx context.Context, m *maint.Maintainer, repo string) maint.Report {
					return m.GarbageCollect(ctx, repo, aggressive)
				})

			var freed int64
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				saved := styles.SuccessStyle.Render(r.Saved)
				if !r.OK {
					saved = styles.ErrorStyle.Render(styles.SymbolFailed + " failed")
				}
				freed += r.Freed
				rows = append(rows, []string{
					displayName(cfg, r.Repo),
					maint.FormatSize(r.SizeBefore),
					maint.FormatSize(r.SizeAfter),
					saved,
				})
			}
			out.Table([]string{"REPO", "BEFORE", "AFTER", "SAVED"}, rows, 1, 2, 3)

			if freed > 0 {
				store := stats.New(cfg.Stats.StoreConfig())
				totals := store.UpdateMyStats(ctx, cfg.ResolvedIdentity(), 0, freed)
				if totals.SpaceCleaned > 0 {
					l.Printf("freed %s (%s total)\n", maint.FormatSize(freed), maint.FormatSize(totals.SpaceCleaned))
				} else {
					l.Printf("freed %s\n", maint.FormatSize(freed))
				}
			}

			if runErr != nil {
				return runErr
			}
			if n := countUnhealthy(reports); n > 0 {
				return fmt.Errorf("gc failed in %d of %d repositories (run with -v for details)", n, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&aggressive, "aggressive", false, "Pass --aggressive to git gc (much slower)")

	return cmd
}
