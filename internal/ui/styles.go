// Package ui provides terminal styling for conductor CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/conductor/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	// Semantic status colors (Ayu theme - adaptive light/dark)
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

// Status styles - consistent across all commands
var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// CategoryStyle for section headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons - consistent semantic indicators
const (
	IconPass    = "✓"
	IconWarn    = "⚠"
	IconFail    = "✗"
	IconSkip    = "-"
	IconInfo    = "ℹ"
	IconPending = "○"
	IconActive  = "◐"
	IconPointer = "▶"
)

// Tree characters for hierarchical display
const (
	TreeChild  = "⎿ "  // child indicator
	TreeLast   = "└─ " // last child / detail line
	TreeIndent = "  "  // 2-space indent per level
)

// Separators
const (
	SeparatorLight = "──────────────────────────────────────────"
	SeparatorHeavy = "══════════════════════════════════════════"
)

// RenderPass renders text with pass (green) styling
func RenderPass(s string) string {
	return PassStyle.Render(s)
}

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderPassIcon renders the pass icon with styling
func RenderPassIcon() string {
	return PassStyle.Render(IconPass)
}

// RenderWarnIcon renders the warning icon with styling
func RenderWarnIcon() string {
	return WarnStyle.Render(IconWarn)
}

// RenderFailIcon renders the fail icon with styling
func RenderFailIcon() string {
	return FailStyle.Render(IconFail)
}

// RenderSkipIcon renders the skip icon with styling
func RenderSkipIcon() string {
	return MutedStyle.Render(IconSkip)
}

// RenderInfoIcon renders the info icon with styling
func RenderInfoIcon() string {
	return AccentStyle.Render(IconInfo)
}

// RenderStageIcon renders the status indicator of one stage record.
// Escalation wins over status; a completed stage is colored by its verdict.
func RenderStageIcon(rec *types.StageRecord) string {
	if rec == nil {
		return RenderSkipIcon()
	}
	if rec.Escalated {
		return FailStyle.Bold(true).Render(IconWarn)
	}
	switch rec.Status {
	case types.StatusActive:
		return AccentStyle.Render(IconActive)
	case types.StatusCompleted:
		if v := rec.LastVerdict(); v == types.VerdictIssues {
			return RenderWarnIcon()
		}
		return RenderPassIcon()
	}
	if rec.LastVerdict() == types.VerdictFail || rec.LastVerdict() == types.VerdictReject {
		return RenderFailIcon()
	}
	return MutedStyle.Render(IconPending)
}

// RenderVerdict renders a verdict word in its semantic color.
func RenderVerdict(v types.Verdict) string {
	switch v {
	case types.VerdictPass:
		return RenderPass(string(v))
	case types.VerdictIssues:
		return RenderWarn(string(v))
	case types.VerdictFail, types.VerdictReject:
		return RenderFail(string(v))
	}
	return RenderMuted("-")
}

// RenderCounter renders "name n/threshold", warning at threshold-1 and failing
// at threshold.
func RenderCounter(name string, n, threshold int) string {
	s := name + " " + strconv.Itoa(n) + "/" + strconv.Itoa(threshold)
	switch {
	case n >= threshold:
		return RenderFail(s)
	case n == threshold-1 && n > 0:
		return RenderWarn(s)
	case n == 0:
		return RenderMuted(s)
	}
	return s
}
