package git

import (
	"errors"
	"os/exec"

	"github.com/raphi011/bsw/internal/failure"
)

// ErrGitNotFound means no git executable is in PATH.
var ErrGitNotFound = errors.New("git not found: please install git (https://git-scm.com)")

// CheckGit fails with a StartFailure wrapping ErrGitNotFound when git
// cannot be launched, before any repository is touched.
func CheckGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return failure.New(failure.StartFailure, "look up git", ErrGitNotFound)
	}
	return nil
}
