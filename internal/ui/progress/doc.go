// Package progress draws a progress bar for multi-repository operations and
// a spinner for single unbounded ones on stderr.
//
// Both components are no-ops when the output is not a terminal, so callers
// can use them unconditionally and fall back to plain log lines.
package progress
