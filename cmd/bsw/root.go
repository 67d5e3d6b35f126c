package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
	"github.com/raphi011/bsw/internal/output"
	"github.com/raphi011/bsw/internal/ui/styles"
)

// Command group IDs for organizing help output
const (
	GroupCore        = "core"
	GroupMaintenance = "maintenance"
	GroupConfig      = "config"
)

// commands that work without git installed
var noGitCommands = []string{"completion", "__complete", "__completeNoDesc", "help", "config", "init", "show", "path", "stats"}

func newRootCmd() *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:   "bsw",
		Short: "Switch many git working copies to the same branch",
		Long: `bsw switches every configured working copy to one branch in parallel.

Local changes are stashed before the switch and restored afterwards (or
discarded with --no-stash). Repositories are the checkouts listed in
parent_paths plus the nested sub_dirs inside them, from
~/.config/bsw/config.toml.

Usage is recorded in an optional shared stats file and shown with "bsw stats".`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// Flags are parsed now; rebuild logger and printer from them.
			ctx = log.WithLogger(ctx, log.New(cmd.ErrOrStderr(), verbose, quiet))
			ctx = output.WithPrinter(ctx, cmd.OutOrStdout())
			cmd.SetContext(ctx)

			styles.Init()

			if slices.Contains(noGitCommands, cmd.Name()) {
				return nil
			}
			return git.CheckGit()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show git commands and every workflow step")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupMaintenance, Title: "Maintenance Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	root.AddCommand(newSwitchCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newBranchesCmd())

	root.AddCommand(newRepairCmd())
	root.AddCommand(newGCCmd())

	root.AddCommand(newStatsCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute builds the root command and runs it with os.Args.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = config.WithConfig(ctx, &cfg)

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'bsw -h' for help")
		cancel()
		os.Exit(1)
	}
}
