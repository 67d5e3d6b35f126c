package main

import (
	"context"
	"io"

	"github.com/raphi011/bsw/internal/config"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
	"github.com/raphi011/bsw/internal/maint"
	"github.com/raphi011/bsw/internal/ui/progress"
	"github.com/raphi011/bsw/internal/ui/styles"
)

// maintenanceFunc runs one maintenance operation on repo.
type maintenanceFunc func(ctx context.Context, m *maint.Maintainer, repo string) maint.Report

// runMaintenance runs op on each repository in turn with a spinner showing
// git's latest output line. Stops early when ctx is cancelled and returns
// the reports gathered so far together with the context error.
func runMaintenance(ctx context.Context, errOut io.Writer, cfg *config.Config, repos []string, verb string, op maintenanceFunc) ([]maint.Report, error) {
	l := log.FromContext(ctx)
	interactive := progress.IsTerminal(errOut)

	reports := make([]maint.Report, 0, len(repos))
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		name := displayName(cfg, repo)
		spinner := progress.NewSpinnerTo(errOut, verb+" "+name)
		runner := git.ExecRunner{OnLine: func(_, line string) {
			spinner.UpdateMessage(verb + " " + name + ": " + line)
		}}

		spinner.Start()
		r := op(ctx, maint.New(runner), repo)
		spinner.Stop()

		if !interactive {
			l.Println(reportLine(name, r))
		}
		if l.IsVerbose() {
			for _, line := range r.Log {
				l.Printf("  %s\n", line)
			}
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func reportLine(name string, r maint.Report) string {
	if r.OK {
		return styles.OK(name) + " " + styles.Elapsed(r.Elapsed)
	}
	return styles.Failed(name) + ": " + lastLine(r.Log)
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func countUnhealthy(reports []maint.Report) int {
	n := 0
	for _, r := range reports {
		if !r.OK {
			n++
		}
	}
	return n
}
