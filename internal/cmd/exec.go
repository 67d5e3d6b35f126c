package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/bsw/internal/failure"
	"github.com/raphi011/bsw/internal/log"
)

// NoTimeout makes Run wait until the process exits by itself.
const NoTimeout time.Duration = -1

// DefaultDrainGrace bounds how long output capture may continue after the
// process exited.
const DefaultDrainGrace = 5 * time.Second

// noPromptEnv keeps git and its credential helpers from asking for input.
var noPromptEnv = []string{
	"GIT_TERMINAL_PROMPT=0",
	"GCM_INTERACTIVE=Never",
	"GIT_ASKPASS=echo",
	"SSH_ASKPASS=echo",
}

// Status is the terminal state of a command.
type Status int

const (
	// Completed means the process exited by itself; check ExitCode.
	Completed Status = iota
	// TimedOut means the process group was killed after the timeout.
	TimedOut
	// FailedToStart means the process could not be launched.
	FailedToStart
	// Error means waiting for the process failed for another reason.
	Error
	// Cancelled means the caller's context ended before the process did.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	case FailedToStart:
		return "failed to start"
	case Cancelled:
		return "cancelled"
	default:
		return "error"
	}
}

// Result is the outcome of a command.
type Result struct {
	Name     string
	Args     []string
	ExitCode int // -1 unless Status is Completed
	Stdout   string
	Stderr   string
	Status   Status
	Duration time.Duration
}

// OK reports whether the command completed with exit code 0.
func (r Result) OK() bool {
	return r.Status == Completed && r.ExitCode == 0
}

// Output returns trimmed stderr, falling back to trimmed stdout.
// Useful as the diagnostic text of a failed command.
func (r Result) Output() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// Err returns nil for a successful command and a *failure.Error otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}

	op := r.Name
	if len(r.Args) > 0 {
		op += " " + strings.Join(r.Args, " ")
	}

	var cause error
	if out := r.Output(); out != "" {
		cause = errors.New(out)
	}

	switch r.Status {
	case Completed:
		return failure.New(failure.NonZeroExit, op, fmt.Errorf("exit status %d: %w", r.ExitCode, errOrEmpty(cause)))
	case TimedOut:
		return failure.New(failure.Timeout, op, cause)
	case FailedToStart:
		return failure.New(failure.StartFailure, op, cause)
	case Cancelled:
		return failure.New(failure.Cancelled, op, cause)
	default:
		return failure.New(failure.Unknown, op, cause)
	}
}

func errOrEmpty(err error) error {
	if err == nil {
		return errors.New("no output")
	}
	return err
}

// Options configures a single Run.
type Options struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Timeout kills the process group once elapsed. Use NoTimeout to wait
	// indefinitely. The zero value is an immediate timeout, not "none".
	Timeout time.Duration

	// Env is appended to the inherited environment.
	Env []string

	// OnLine, if set, is called for every output line while the process
	// runs. stream is "stdout" or "stderr". It is called from the capture
	// goroutines and must be safe for concurrent use.
	OnLine func(stream, line string)

	// DrainGrace overrides DefaultDrainGrace when positive.
	DrainGrace time.Duration
}

// Execute runs name with args in dir and the given timeout.
func Execute(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) Result {
	return Run(ctx, Options{Dir: dir, Timeout: timeout}, name, args...)
}

// Run executes a command and returns its Result. It never panics on
// failure and never returns an error; see Result.Status.
func Run(ctx context.Context, opts Options, name string, args ...string) Result {
	done := log.FromContext(ctx).Command(opts.Dir, name, args...)

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout >= 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	c := exec.CommandContext(runCtx, name, args...)
	c.Dir = opts.Dir
	c.Env = append(append(os.Environ(), noPromptEnv...), opts.Env...)
	setProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	c.WaitDelay = DefaultDrainGrace
	if opts.DrainGrace > 0 {
		c.WaitDelay = opts.DrainGrace
	}

	stdout := &capture{stream: "stdout", onLine: opts.OnLine}
	stderr := &capture{stream: "stderr", onLine: opts.OnLine}
	c.Stdout = stdout
	c.Stderr = stderr

	res := Result{Name: name, Args: args, ExitCode: -1}

	start := time.Now()
	err := c.Start()
	if err != nil {
		res.Duration = time.Since(start)
		res.Status = classifyInterrupted(ctx, runCtx, FailedToStart)
		res.Stderr = err.Error()
		done(res.Duration)
		return res
	}

	err = c.Wait()
	res.Duration = time.Since(start)
	stdout.flush()
	stderr.flush()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Status = Completed
		res.ExitCode = 0
	case ctx.Err() != nil || runCtx.Err() != nil:
		res.Status = classifyInterrupted(ctx, runCtx, Error)
		if res.Status == TimedOut {
			res.Stderr = appendLine(res.Stderr, fmt.Sprintf("timed out after %s", opts.Timeout))
		}
	case errors.As(err, &exitErr):
		res.Status = Completed
		res.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrWaitDelay):
		// Exited by itself, but a descendant held the pipes past the grace period.
		res.Status = Completed
		res.ExitCode = c.ProcessState.ExitCode()
	default:
		res.Status = Error
		res.Stderr = appendLine(res.Stderr, err.Error())
	}

	done(res.Duration)
	return res
}

// classifyInterrupted decides between Cancelled and TimedOut when a context
// ended. Cancellation of the caller's context wins.
func classifyInterrupted(parent, run context.Context, fallback Status) Status {
	if parent.Err() != nil {
		return Cancelled
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return TimedOut
	}
	return fallback
}

func appendLine(s, line string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s + line
	}
	return s + "\n" + line
}

// capture collects one output stream and forwards complete lines.
type capture struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	partial []byte
	stream  string
	onLine  func(stream, line string)
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Write(p)
	if c.onLine == nil {
		return len(p), nil
	}

	c.partial = append(c.partial, p...)
	for {
		i := bytes.IndexByte(c.partial, '\n')
		if i < 0 {
			break
		}
		c.onLine(c.stream, strings.TrimRight(string(c.partial[:i]), "\r"))
		c.partial = c.partial[i+1:]
	}
	return len(p), nil
}

// flush forwards a trailing line without newline.
func (c *capture) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onLine != nil && len(c.partial) > 0 {
		c.onLine(c.stream, strings.TrimRight(string(c.partial), "\r"))
	}
	c.partial = nil
}

func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
