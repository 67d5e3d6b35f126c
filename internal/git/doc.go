// Package git talks to the git CLI for bsw.
//
// Every call goes through a [Runner], which by default spawns the git binary
// via [cmd.Run] with a per-call timeout. Arguments are prefixed with
// "-c core.quotepath=false -c credential.helper=" so paths come back
// unescaped and no credential helper can pop up a prompt.
//
// # Repository Discovery
//
//   - [Locate]: walk up from a path to the nearest directory containing .git
//   - [FindRepos]: probe configured parent directories and sub directories
//
// # Queries
//
//   - [CurrentBranch]: branch name, or "(detached @sha)" / "(unknown)"
//   - [AllBranches]: local heads plus origin branches, de-duplicated
//   - [HasLocalChanges], [LocalBranchExists]
//
// Tests replace the Runner to script git's answers without a repository.
package git
