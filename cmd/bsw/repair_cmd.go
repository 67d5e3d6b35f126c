package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/maint"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/ui/styles"
)

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repair [path...]",
		Short:   "Remove stale lock files and check repository integrity",
		GroupID: GroupMaintenance,
		Long: `Delete leftover *.lock files under .git (from crashed git processes)
and run "git fsck --full". fsck has no time limit; press Ctrl-C to stop.

Without paths, every configured repository is repaired.`,
		Example: `  bsw repair                  # All configured repositories
  bsw repair ~/work/client    # One repository`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			targets, err := targetRepos(ctx, cfg, args)
			if err != nil {
				return err
			}

			reports, runErr := runMaintenance(ctx, cmd.ErrOrStderr(), cfg, targets, "repair",
				func(ctx context.Context, m *maint.Maintainer, repo string) maint.Report {
					return m.Repair(ctx, repo)
				})

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				result := styles.SuccessStyle.Render(styles.SymbolOK + " healthy")
				detail := ""
				if !r.OK {
					result = styles.ErrorStyle.Render(styles.SymbolFailed + " failed")
					detail = lastLine(r.Log)
				}
				rows = append(rows, []string{displayName(cfg, r.Repo), result, fmt.Sprintf("%.1fs", r.Elapsed.Seconds()), detail})
			}
			out.Table([]string{"REPO", "RESULT", "TIME", "DETAIL"}, rows)

			if runErr != nil {
				return runErr
			}
			if n := countUnhealthy(reports); n > 0 {
				return fmt.Errorf("%d of %d repositories need attention (run with -v for details)", n, len(reports))
			}
			return nil
		},
	}

	return cmd
}
