package git

import (
	"context"
	"time"

	"github.com/raphi011/bsw/internal/cmd"
)

// baseArgs are prepended to every git invocation.
var baseArgs = []string{"-c", "core.quotepath=false", "-c", "credential.helper="}

// Runner runs a git command in dir.
type Runner interface {
	Git(ctx context.Context, dir string, timeout time.Duration, args ...string) cmd.Result
}

// ExecRunner runs the git binary found in PATH.
type ExecRunner struct {
	// OnLine receives output lines while git runs. Optional.
	OnLine func(stream, line string)
}

// Git implements Runner.
func (r ExecRunner) Git(ctx context.Context, dir string, timeout time.Duration, args ...string) cmd.Result {
	full := make([]string, 0, len(baseArgs)+len(args))
	full = append(full, baseArgs...)
	full = append(full, args...)
	return cmd.Run(ctx, cmd.Options{Dir: dir, Timeout: timeout, OnLine: r.OnLine}, "git", full...)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, timeout time.Duration, args ...string) cmd.Result

// Git implements Runner.
func (f RunnerFunc) Git(ctx context.Context, dir string, timeout time.Duration, args ...string) cmd.Result {
	return f(ctx, dir, timeout, args...)
}
