package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// DefaultWrapWidth is used when a caller passes no width.
const DefaultWrapWidth = 80

// Truncate shortens s to at most width terminal cells, ending in "…".
// Escape sequences from styled input take no width and are kept intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// Wrap wraps s at spaces and hyphens to width cells. Existing line breaks
// are kept; a single word wider than width stays on its own line.
func Wrap(s string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	return ansi.Wordwrap(s, width, "-")
}

// FirstLine returns the first non-blank line of s, trimmed. Event reasons and
// report excerpts are shown on one line in lists.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
