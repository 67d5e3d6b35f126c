package switcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/bsw/internal/cmd"
	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/log"
)

// Step timeouts, scaled to expected cost.
const (
	fetchTargetTimeout = 60 * time.Second
	fetchAllTimeout    = 180 * time.Second
	resetTimeout       = 60 * time.Second
	cleanTimeout       = 60 * time.Second
	checkoutTimeout    = 90 * time.Second
	createTimeout      = 120 * time.Second
	pullTimeout        = 120 * time.Second
)

// ReasonCheckoutFailed is the failure reason when the target branch could
// not be created from origin.
const ReasonCheckoutFailed = "Checkout failed"

// maxSuggestions caps the similar branch names listed after a failed checkout.
const maxSuggestions = 3

// Options controls how a switch treats local state.
type Options struct {
	// UseStash stashes local changes and restores them afterwards.
	// When false, local changes are discarded.
	UseStash bool
	// FastMode skips fetching and pulling and keeps untracked files.
	FastMode bool
}

// Outcome is the result of one switch.
type Outcome struct {
	Repo      string
	Branch    string
	OK        bool
	Reason    string   // set when OK is false
	Log       []string // every step in execution order
	Stashed   bool     // a stash entry was created
	StashKept bool     // the stash could not be restored and is still listed
	Elapsed   time.Duration
}

// Switcher runs switch workflows through a git Runner.
type Switcher struct {
	runner git.Runner
}

// New creates a Switcher. A nil runner uses git.ExecRunner.
func New(r git.Runner) *Switcher {
	if r == nil {
		r = git.ExecRunner{}
	}
	return &Switcher{runner: r}
}

// run holds the state of a single SwitchAndPull call.
type run struct {
	ctx    context.Context
	runner git.Runner
	repo   string
	out    *Outcome
}

func (r *run) logf(tag, format string, args ...any) {
	line := "[" + tag + "] " + fmt.Sprintf(format, args...)
	r.out.Log = append(r.out.Log, line)
	log.FromContext(r.ctx).Debug(line, "repo", r.repo)
}

// git runs a step command and logs it. A failure is logged with its
// diagnostic unless quiet is set; the caller decides what it means.
func (r *run) git(tag string, timeout time.Duration, quiet bool, args ...string) cmd.Result {
	r.logf(tag, "git %s", strings.Join(args, " "))
	res := r.runner.Git(r.ctx, r.repo, timeout, args...)
	if !res.OK() && !quiet {
		r.logf(tag, "failed: %s", describe(res))
	}
	return res
}

// describe renders a failed result for the log.
func describe(res cmd.Result) string {
	out := firstLine(res.Output())
	switch {
	case res.Status != cmd.Completed && out != "":
		return res.Status.String() + ": " + out
	case res.Status != cmd.Completed:
		return res.Status.String()
	case out != "":
		return out
	default:
		return fmt.Sprintf("exit status %d", res.ExitCode)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// SwitchAndPull switches repoPath to target and updates it.
func (s *Switcher) SwitchAndPull(ctx context.Context, repoPath, target string, opts Options) Outcome {
	start := time.Now()
	out := Outcome{Repo: repoPath, Branch: target}
	r := &run{ctx: ctx, runner: s.runner, repo: repoPath, out: &out}

	r.sync(target, opts)

	if opts.UseStash {
		if !r.stash() {
			out.Elapsed = time.Since(start)
			return out
		}
	} else {
		r.discard(opts)
	}

	if !r.checkout(target, opts) {
		out.Elapsed = time.Since(start)
		return out
	}

	r.pull(opts)

	if opts.UseStash && out.Stashed {
		r.restore()
	}

	out.OK = true
	out.Elapsed = time.Since(start)
	return out
}

// sync fetches the target branch. Never fatal.
func (r *run) sync(target string, opts Options) {
	if opts.FastMode {
		r.logf("sync", "skipped (fast mode)")
		return
	}

	res := r.git("sync", fetchTargetTimeout, true, "fetch", "origin", target, "--no-tags", "--prune", "--no-progress")
	if res.OK() {
		return
	}
	r.logf("sync", "targeted fetch failed (%s), fetching all", describe(res))
	r.git("sync", fetchAllTimeout, false, "fetch", "--all", "--tags", "--prune", "--no-progress")
}

// stash shelves local changes. Returns false if the switch must abort.
func (r *run) stash() bool {
	if !git.HasLocalChanges(r.ctx, r.runner, r.repo) {
		r.logf("changes", "working tree clean")
		return true
	}

	r.logf("stash", "git stash push -u -m %s", git.StashMessage)
	res := git.StashPush(r.ctx, r.runner, r.repo)
	if !res.OK() {
		r.logf("stash", "failed: %s", describe(res))
		r.out.Reason = res.Output()
		if r.out.Reason == "" {
			r.out.Reason = describe(res)
		}
		return false
	}
	r.out.Stashed = true
	return true
}

// discard throws local changes away. Failures are soft; checkout -f
// follows anyway.
func (r *run) discard(opts Options) {
	r.git("discard", resetTimeout, false, "reset", "--hard")
	if opts.FastMode {
		r.logf("discard", "keeping untracked files (fast mode)")
		return
	}
	r.git("discard", cleanTimeout, false, "clean", "-fd")
}

// checkout switches to target. Returns false if the switch must abort.
func (r *run) checkout(target string, opts Options) bool {
	if git.LocalBranchExists(r.ctx, r.runner, r.repo, target) {
		// A failed forced checkout of an existing branch is soft, the
		// follow-up pull or the next switch will surface it.
		r.git("checkout", checkoutTimeout, false, "checkout", "-f", target)
		return true
	}

	r.logf("checkout", "no local branch %s, creating from origin/%s", target, target)
	if opts.FastMode {
		r.git("checkout", fetchTargetTimeout, false, "fetch", "origin", target)
	}

	res := r.git("checkout", createTimeout, false, "checkout", "-B", target, "origin/"+target)
	if res.OK() {
		return true
	}

	r.out.Reason = ReasonCheckoutFailed
	if similar := r.suggest(target); len(similar) > 0 {
		r.logf("checkout", "similar branches: %s", strings.Join(similar, ", "))
	}
	return false
}

// suggest returns up to maxSuggestions branch names resembling target.
func (r *run) suggest(target string) []string {
	branches := git.AllBranches(r.ctx, r.runner, r.repo)
	matches := fuzzy.Find(target, branches)

	var names []string
	for _, m := range matches {
		if m.Str == target {
			continue
		}
		names = append(names, m.Str)
		if len(names) == maxSuggestions {
			break
		}
	}
	return names
}

// pull fast-forwards the branch. Never fatal.
func (r *run) pull(opts Options) {
	if opts.FastMode {
		r.logf("pull", "skipped (fast mode)")
		return
	}
	r.git("pull", pullTimeout, false, "pull", "--ff-only")
}

// restore pops the stash created by stash. Never fatal; on conflict the
// entry stays in the stash list.
func (r *run) restore() {
	r.logf("restore", "git stash pop --index")
	res := git.StashPop(r.ctx, r.runner, r.repo)
	if !res.OK() {
		r.out.StashKept = true
		r.logf("restore", "failed, changes kept in stash: %s", describe(res))
	}
}

// SwitchAll switches every repo to branch, running at most limit repos at a
// time (limit <= 0 means no limit). Outcomes are returned in input order.
// onDone, if set, is called once per repo as it finishes; calls are
// serialized.
func (s *Switcher) SwitchAll(ctx context.Context, repos []string, branch string, opts Options, limit int, onDone func(Outcome)) []Outcome {
	outcomes := make([]Outcome, len(repos))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	for i, repo := range repos {
		g.Go(func() error {
			o := s.SwitchAndPull(ctx, repo, branch, opts)
			outcomes[i] = o
			if onDone != nil {
				mu.Lock()
				onDone(o)
				mu.Unlock()
			}
			return nil // per-repo failures live in the Outcome
		})
	}

	_ = g.Wait()
	return outcomes
}
