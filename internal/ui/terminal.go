package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStdinTerminal reports whether stdin is a TTY (interactive prompts are
// only offered then).
func IsStdinTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ShouldUseColor follows the NO_COLOR / CLICOLOR / CLICOLOR_FORCE conventions,
// falling back to whether stdout is a terminal.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok && os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if f := os.Getenv("CLICOLOR_FORCE"); f != "" && f != "0" {
		return true
	}
	return IsTerminal()
}

// ShouldUseEmoji reports whether stage icons should be printed as emoji.
func ShouldUseEmoji() bool {
	if os.Getenv("CONDUCTOR_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}

// IsAgentMode reports whether output is consumed by a coding agent rather
// than a person: set explicitly with CONDUCTOR_AGENT_MODE=1, or detected
// from the agent's own environment marker.
func IsAgentMode() bool {
	if v := os.Getenv("CONDUCTOR_AGENT_MODE"); v != "" {
		return v != "0"
	}
	return os.Getenv("CLAUDECODE") != ""
}

// HasDarkBackground reports the terminal background, defaulting to dark.
func HasDarkBackground() bool {
	if !IsTerminal() {
		return true
	}
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}
