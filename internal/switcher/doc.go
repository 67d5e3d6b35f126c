// Package switcher moves a repository to another branch and brings it up to
// date.
//
// [Switcher.SwitchAndPull] runs five steps in order, each a git command with
// its own timeout:
//
//  1. sync: fetch the target branch, falling back to fetching everything
//  2. local changes: stash them, or discard them with reset/clean
//  3. checkout: switch to the local branch, or create it from origin
//  4. pull: fast-forward only
//  5. restore: pop the stash created in step 2
//
// Only a failed stash push or a failed branch creation makes the outcome
// fail. Every other failure is written to the log and the switch goes on,
// since a stale fetch or a diverged pull still leaves the user on the right
// branch.
//
// Fast mode skips sync and pull and keeps untracked files when discarding.
//
// [Switcher.SwitchAll] runs SwitchAndPull for many repositories in parallel
// with a concurrency limit. Steps within one repository never overlap.
package switcher
