package git

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphi011/bsw/internal/cmd"
	"github.com/raphi011/bsw/internal/git/gittest"
)

func TestStashPushPop(t *testing.T) {
	t.Parallel()

	repo := gittest.NewRepo(t)
	ctx := context.Background()

	gittest.WriteFile(t, repo, "README.md", "# changed\n")
	gittest.WriteFile(t, repo, "new.txt", "untracked\n")
	gittest.Git(t, repo, "add", "README.md")

	if res := StashPush(ctx, ExecRunner{}, repo); !res.OK() {
		t.Fatalf("StashPush failed: %s", res.Output())
	}
	if HasLocalChanges(ctx, ExecRunner{}, repo) {
		t.Fatal("changes remain after StashPush")
	}
	if list := gittest.Git(t, repo, "stash", "list"); !strings.Contains(list, StashMessage) {
		t.Errorf("stash list = %q, want entry named %s", list, StashMessage)
	}

	if res := StashPop(ctx, ExecRunner{}, repo); !res.OK() {
		t.Fatalf("StashPop failed: %s", res.Output())
	}

	// --index keeps the staged change staged; untracked files come back.
	status := gittest.Git(t, repo, "status", "--porcelain")
	if !strings.Contains(status, "M  README.md") {
		t.Errorf("README.md not restored as staged, status:\n%s", status)
	}
	if !strings.Contains(status, "?? new.txt") {
		t.Errorf("untracked file not restored, status:\n%s", status)
	}
}

func TestStashPop_NothingStashed(t *testing.T) {
	t.Parallel()

	repo := gittest.NewRepo(t)
	if res := StashPop(context.Background(), ExecRunner{}, repo); res.OK() {
		t.Error("StashPop succeeded with an empty stash")
	}
}

func TestExecRunner_BaseArgsAndOnLine(t *testing.T) {
	t.Parallel()

	repo := gittest.NewRepo(t)

	var (
		mu    sync.Mutex
		lines []string
	)
	r := ExecRunner{OnLine: func(_, line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	}}

	res := r.Git(context.Background(), repo, 10*time.Second, "config", "--get", "core.quotepath")
	if !res.OK() {
		t.Fatalf("git config failed: %s", res.Output())
	}
	if got := strings.TrimSpace(res.Stdout); got != "false" {
		t.Errorf("core.quotepath = %q, want false", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) == 0 || lines[0] != "false" {
		t.Errorf("OnLine received %q, want [false]", lines)
	}
}

func TestRunnerFunc_StashPushArgs(t *testing.T) {
	t.Parallel()

	var gotArgs []string
	r := RunnerFunc(func(_ context.Context, _ string, _ time.Duration, args ...string) cmd.Result {
		gotArgs = args
		return cmd.Result{}
	})

	StashPush(context.Background(), r, "/repo")
	want := "stash push -u -m " + StashMessage
	if got := strings.Join(gotArgs, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestCheckGit(t *testing.T) {
	t.Parallel()
	gittest.SkipWithoutGit(t)

	if err := CheckGit(); err != nil {
		t.Errorf("CheckGit() = %v with git in PATH", err)
	}
}
