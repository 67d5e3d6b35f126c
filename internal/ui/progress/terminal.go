package progress

import (
	"io"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal that can show animations.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// programOptions renders to out with the color profile detected for it
// (handles NO_COLOR, dumb terminals, etc.).
func programOptions(out io.Writer) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
		tea.WithColorProfile(colorprofile.Detect(out, os.Environ())),
	}
}
