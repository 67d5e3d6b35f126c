//go:build !unix

package cmd

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

// killProcessGroup falls back to killing the direct child only.
func killProcessGroup(c *exec.Cmd) error {
	if c.Process == nil {
		return nil
	}
	return c.Process.Kill()
}
