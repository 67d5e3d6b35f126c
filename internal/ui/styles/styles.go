// Package styles provides shared lipgloss styles for bsw output.
//
// Colors come from a Theme; Init picks the dark or light variant from the
// terminal background once at startup.
package styles

import (
	"image/color"
	"os"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"
)

// Theme defines the color palette for UI components
type Theme struct {
	Primary color.Color // borders, titles, progress gradient start
	Accent  color.Color // branch names, progress gradient end
	Success color.Color // switched, healthy
	Error   color.Color // failed
	Warning color.Color // stash kept, dirty working tree
	Muted   color.Color // secondary text
}

var (
	// DarkTheme is used on dark terminal backgrounds and when detection is
	// not possible.
	DarkTheme = Theme{
		Primary: lipgloss.Color("62"),  // cyan/teal
		Accent:  lipgloss.Color("212"), // pink/magenta
		Success: lipgloss.Color("82"),  // green
		Error:   lipgloss.Color("196"), // red
		Warning: lipgloss.Color("214"), // orange
		Muted:   lipgloss.Color("240"), // dark gray
	}

	// LightTheme is used on light terminal backgrounds.
	LightTheme = Theme{
		Primary: lipgloss.Color("25"),
		Accent:  lipgloss.Color("163"),
		Success: lipgloss.Color("28"),
		Error:   lipgloss.Color("160"),
		Warning: lipgloss.Color("130"),
		Muted:   lipgloss.Color("245"),
	}
)

// Active colors
var (
	Primary = DarkTheme.Primary
	Accent  = DarkTheme.Accent
	Success = DarkTheme.Success
	Error   = DarkTheme.Error
	Warning = DarkTheme.Warning
	Muted   = DarkTheme.Muted
)

// Common styles
var (
	Bold         = lipgloss.NewStyle().Bold(true)
	PrimaryStyle = lipgloss.NewStyle().Foreground(Primary)
	AccentStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)

var initOnce sync.Once

// Init selects the theme matching the terminal background. Only the first
// call has an effect.
func Init() {
	initOnce.Do(func() { Apply(detect()) })
}

func detect() Theme {
	// Background detection queries the terminal; skip it when piped.
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stderr.Fd()) {
		return DarkTheme
	}
	if lipgloss.HasDarkBackground(os.Stdin, os.Stderr) {
		return DarkTheme
	}
	return LightTheme
}

// Apply updates all global color and style variables to use t.
func Apply(t Theme) {
	Primary = t.Primary
	Accent = t.Accent
	Success = t.Success
	Error = t.Error
	Warning = t.Warning
	Muted = t.Muted

	PrimaryStyle = lipgloss.NewStyle().Foreground(t.Primary)
	AccentStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(t.Success)
	ErrorStyle = lipgloss.NewStyle().Foreground(t.Error)
	WarningStyle = lipgloss.NewStyle().Foreground(t.Warning)
	MutedStyle = lipgloss.NewStyle().Foreground(t.Muted)
}
