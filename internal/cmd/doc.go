// Package cmd runs external commands and turns every outcome into a value.
//
// [Run] never returns an error. A launch failure, a timeout, a cancelled
// context and a non-zero exit all come back as a [Result] whose [Status]
// says what happened; [Result.Err] maps that onto the [failure] taxonomy for
// callers that want an error.
//
// # Timeouts
//
// A negative timeout ([NoTimeout]) waits for the process to exit on its own.
// This is used for git gc and git fsck, where killing the process midway
// risks a corrupt object store. Any other timeout kills the whole process
// group once it elapses, so helpers spawned by git (ssh, remote-https,
// pack-objects) die with it.
//
// # Output
//
// stdout and stderr are read concurrently while the process runs, so a
// chatty command can never block on a full pipe. [Options.OnLine] sees every
// line as it arrives. Once the process exited, capture gets
// [DefaultDrainGrace] to reach EOF; a grandchild that keeps the pipe open
// does not hang the caller.
//
// # Prompts
//
// The child environment disables terminal and credential-manager prompts,
// so an expired token fails fast instead of waiting on a prompt nobody sees.
package cmd
