package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/stats"
	"github.com/raphi011/bsw/internal/switcher"
	"github.com/raphi011/bsw/internal/ui/progress"
	"github.com/raphi011/bsw/internal/ui/styles"
)

func newSwitchCmd() *cobra.Command {
	var (
		repos    []string
		stash    bool
		noStash  bool
		fast     bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:     "switch <branch>",
		Short:   "Switch all repositories to a branch",
		Aliases: []string{"sw"},
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Switch every repository to <branch> and pull it.

Per repository: fetch the branch from origin, stash (or discard) local
changes, check out the branch (creating a tracking branch from origin if
needed), fast-forward pull, and restore the stash.

Repositories run in parallel, up to "parallel" from the config or -j.`,
		Example: `  bsw switch release/2.0              # All configured repositories
  bsw switch main -r ~/work/client      # One repository
  bsw switch feature/x --no-stash       # Discard local changes instead of stashing
  bsw switch main --fast -j 4           # No fetch/pull, four at a time`,
		ValidArgsFunction: completeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			branch := strings.TrimSpace(args[0])
			if branch == "" {
				return errors.New("branch name must not be empty")
			}

			opts := switchOptions(cfg, stash, noStash, fast)
			limit := cfg.Parallel
			if parallel > 0 {
				limit = parallel
			}

			targets, err := targetRepos(ctx, cfg, repos)
			if err != nil {
				return err
			}

			l.Debug("switch", "branch", branch, "repos", len(targets), "stash", opts.UseStash, "fast", opts.FastMode, "parallel", limit)
			if !opts.UseStash {
				l.Println(styles.Warn("local changes will be discarded (stashing is off)"))
			}

			errOut := cmd.ErrOrStderr()
			bar := progress.NewProgressBarTo(errOut, len(targets), "switching to "+branch)
			interactive := progress.IsTerminal(errOut)
			bar.Start()

			start := time.Now()
			outcomes := switcher.New(git.ExecRunner{}).SwitchAll(ctx, targets, branch, opts, limit, func(o switcher.Outcome) {
				n := bar.Increment(displayName(cfg, o.Repo))
				if !interactive {
					l.Printf("[%d/%d] %s\n", n, bar.Total(), outcomeLine(cfg, o))
				}
			})
			bar.Stop()
			elapsed := time.Since(start)

			if l.IsVerbose() {
				for _, o := range outcomes {
					l.Printf("%s\n", styles.Bold.Render(displayName(cfg, o.Repo)))
					for _, line := range o.Log {
						l.Printf("  %s\n", line)
					}
				}
			}

			out.Table(
				[]string{"REPO", "RESULT", "TIME", "DETAIL"},
				outcomeRows(cfg, outcomes),
			)

			failed := countFailed(outcomes)
			if failed < len(outcomes) {
				store := stats.New(cfg.Stats.StoreConfig())
				if totals := store.UpdateMyStats(ctx, cfg.ResolvedIdentity(), elapsed.Seconds(), 0); totals.Switches > 0 {
					l.Printf("%s in %s (%d switches, %s total)\n",
						styles.Branch(branch), humanSeconds(elapsed.Seconds()), totals.Switches, humanSeconds(totals.Duration))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d repositories failed to switch to %s", failed, len(outcomes), branch)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository path (repeatable; default: configured repositories)")
	cmd.Flags().BoolVar(&stash, "stash", false, "Stash local changes and restore them after the switch")
	cmd.Flags().BoolVar(&noStash, "no-stash", false, "Discard local changes instead of stashing")
	cmd.Flags().BoolVar(&fast, "fast", false, "Skip fetch and pull, keep untracked files")
	cmd.Flags().IntVarP(&parallel, "parallel", "j", 0, "Repositories switched at once (default: config parallel)")
	cmd.MarkFlagsMutuallyExclusive("stash", "no-stash")
	cmd.MarkFlagDirname("repo")

	return cmd
}

// switchOptions merges config defaults with command-line overrides.
func switchOptions(cfg *config.Config, stash, noStash, fast bool) switcher.Options {
	opts := switcher.Options{
		UseStash: cfg.StashOnSwitch,
		FastMode: cfg.FastMode || fast,
	}
	switch {
	case stash:
		opts.UseStash = true
	case noStash:
		opts.UseStash = false
	}
	return opts
}

func outcomeLine(cfg *config.Config, o switcher.Outcome) string {
	name := displayName(cfg, o.Repo)
	if o.OK {
		return styles.OK(name) + " " + styles.Elapsed(o.Elapsed)
	}
	return styles.Failed(name) + ": " + o.Reason
}

func outcomeRows(cfg *config.Config, outcomes []switcher.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		result := styles.SuccessStyle.Render(styles.SymbolOK + " " + o.Branch)
		detail := ""
		if !o.OK {
			result = styles.ErrorStyle.Render(styles.SymbolFailed + " failed")
			detail = o.Reason
		} else if o.Stashed {
			detail = "changes restored"
		}
		if o.StashKept {
			detail = styles.WarningStyle.Render("changes kept in stash")
		}
		rows = append(rows, []string{
			displayName(cfg, o.Repo),
			result,
			fmt.Sprintf("%.1fs", o.Elapsed.Seconds()),
			detail,
		})
	}
	return rows
}

func countFailed(outcomes []switcher.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.OK {
			n++
		}
	}
	return n
}
