package styles

import (
	"fmt"
	"time"
)

// Outcome symbols
const (
	SymbolOK      = "✓"
	SymbolFailed  = "✗"
	SymbolWarning = "!"
)

// OK renders a success line: "✓ text".
func OK(text string) string {
	return SuccessStyle.Render(SymbolOK) + " " + text
}

// Failed renders a failure line: "✗ text".
func Failed(text string) string {
	return ErrorStyle.Render(SymbolFailed) + " " + text
}

// Warn renders a warning line: "! text".
func Warn(text string) string {
	return WarningStyle.Render(SymbolWarning) + " " + text
}

// Branch renders a branch name.
func Branch(name string) string {
	return AccentStyle.Render(name)
}

// Dirty renders the working tree state column.
func Dirty(dirty bool) string {
	if dirty {
		return WarningStyle.Render("modified")
	}
	return MutedStyle.Render("clean")
}

// Elapsed renders a duration rounded for humans, muted: "(1.2s)".
func Elapsed(d time.Duration) string {
	var s string
	switch {
	case d < time.Second:
		s = d.Round(time.Millisecond).String()
	case d < time.Minute:
		s = fmt.Sprintf("%.1fs", d.Seconds())
	default:
		s = d.Round(time.Second).String()
	}
	return MutedStyle.Render("(" + s + ")")
}
