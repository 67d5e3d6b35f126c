package git

import (
	"context"
	"time"

	"github.com/raphi011/bsw/internal/cmd"
)

// StashMessage names stash entries created by bsw.
const StashMessage = "bsw-autostash"

const (
	stashPushTimeout = 120 * time.Second
	stashPopTimeout  = 180 * time.Second
)

// StashPush stashes all uncommitted changes including untracked files (-u).
func StashPush(ctx context.Context, r Runner, path string) cmd.Result {
	return r.Git(ctx, path, stashPushTimeout, "stash", "push", "-u", "-m", StashMessage)
}

// StashPop restores the most recent stash entry, keeping staged changes
// staged (--index).
func StashPop(ctx context.Context, r Runner, path string) cmd.Result {
	return r.Git(ctx, path, stashPopTimeout, "stash", "pop", "--index")
}
