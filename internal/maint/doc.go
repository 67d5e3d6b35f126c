// Package maint keeps local clones healthy.
//
// [Maintainer.Repair] clears stale *.lock files left behind by crashed or
// killed git processes and runs git fsck. [Maintainer.GarbageCollect] prunes
// stale remote-tracking refs and runs git gc, reporting how much space the
// .git directory lost.
//
// fsck and gc run without a timeout. Both can take a long time on large
// repositories, and killing gc midway can leave the object store damaged.
// Pass an ExecRunner with OnLine set to see progress while they run, and
// cancel the context to stop them.
//
// Unlike the switch workflow, maintenance reports its failures as
// Report.OK = false: diagnosing the repository is the point of running it.
package maint
