package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/maint"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/stats"
	"github.com/raphi011/bsw/internal/ui/styles"
)

var errStatsDisabled = errors.New("stats are disabled: set path in the [stats] section of the config")

func newStatsCmd() *cobra.Command {
	var (
		by         string
		me         bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Show the shared leaderboard",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Show usage totals of everyone sharing the stats file: switches, time
spent switching and space freed by gc. Your own row is highlighted.`,
		Example: `  bsw stats                 # Ranked by switches
  bsw stats --by space      # Ranked by space freed
  bsw stats --me            # Only your totals
  bsw stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			key, err := stats.ParseSortKey(by)
			if err != nil {
				return err
			}

			store := stats.New(cfg.Stats.StoreConfig())
			if !store.Enabled() {
				return errStatsDisabled
			}
			identity := cfg.ResolvedIdentity()

			if me {
				totals := store.GetMyStats(ctx, identity)
				if jsonOutput {
					return out.JSON(totals)
				}
				out.Printf("%s: %s\n", styles.Bold.Render(identity), formatTotals(totals))
				return nil
			}

			board := store.Leaderboard(ctx, key)
			if jsonOutput {
				if board == nil {
					board = []stats.UserStat{}
				}
				return out.JSON(board)
			}
			if len(board) == 0 {
				out.Println("no stats recorded yet in " + store.Path())
				return nil
			}

			out.Table(
				[]string{"#", "USER", "SWITCHES", "TIME", "FREED", "LAST ACTIVE"},
				leaderboardRows(board, identity, time.Now()),
				0, 2, 3, 4,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", string(stats.BySwitches), "Rank by switches, duration or space")
	cmd.Flags().BoolVar(&me, "me", false, "Show only your own totals")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.RegisterFlagCompletionFunc("by", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		keys := make([]string, len(stats.SortKeys))
		for i, k := range stats.SortKeys {
			keys[i] = string(k)
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func leaderboardRows(board []stats.UserStat, identity string, now time.Time) [][]string {
	rows := make([][]string, 0, len(board))
	for i, u := range board {
		name := u.Name
		if name == identity {
			name = styles.AccentStyle.Render(name + " (you)")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			strconv.Itoa(u.TotalSwitches),
			humanSeconds(u.TotalDuration),
			maint.FormatSize(u.TotalSpaceCleaned),
			humanSince(u.LastActive.Time, now),
		})
	}
	return rows
}

// formatTotals renders totals for log lines.
func formatTotals(t stats.Totals) string {
	return fmt.Sprintf("%d switches, %s, %s freed", t.Switches, humanSeconds(t.Duration), maint.FormatSize(t.SpaceCleaned))
}
