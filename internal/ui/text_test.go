package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "tester-1", Truncate("tester-1", 40))
	assert.Equal(t, "", Truncate("tester-1", 0))

	got := Truncate("reviewer-1, reviewer-2, tester-1", 12)
	assert.True(t, strings.HasSuffix(got, "…"), got)
	assert.LessOrEqual(t, ansi.StringWidth(got), 12)
	assert.True(t, strings.HasPrefix(got, "reviewer-1"), got)

	// Wide runes count as two cells.
	got = Truncate("テスト失敗テスト失敗", 7)
	assert.LessOrEqual(t, ansi.StringWidth(got), 7)
}

func TestTruncateStyled(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	defer lipgloss.SetColorProfile(termenv.Ascii)

	styled := FailStyle.Render("escalated after three failures")
	got := Truncate(styled, 10)
	assert.LessOrEqual(t, ansi.StringWidth(got), 10)
	assert.Contains(t, ansi.Strip(got), "escalated")
}

func TestWrap(t *testing.T) {
	desc := "Plan, write the spec tests, implement, verify in parallel, retro"
	got := Wrap(desc, 20)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(strings.TrimRight(line, " ")), 20, line)
	}
	assert.Equal(t, strings.Fields(desc), strings.Fields(got), "no words lost")

	assert.Equal(t, "short line", Wrap("short line", 20))
	assert.Equal(t, "a b\nc d", Wrap("a b\nc d", 10))
	assert.Equal(t, "x", Wrap("x", 0))

	long := Wrap("supercalifragilistic x", 5)
	assert.Contains(t, long, "supercalifragilistic")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "fail count reached 3", FirstLine("\n  \n  fail count reached 3 \nthreshold 3"))
	assert.Equal(t, "", FirstLine(""))
	assert.Equal(t, "", FirstLine(" \n\t\n"))
}
