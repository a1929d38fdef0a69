package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/steveyegge/conductor/internal/types"
)

func verdictPtr(v types.Verdict) *types.Verdict { return &v }

func TestRenderStageIcon(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tests := []struct {
		name string
		rec  *types.StageRecord
		want string
	}{
		{"nil", nil, IconSkip},
		{"pending", &types.StageRecord{Status: types.StatusPending}, IconPending},
		{"active", &types.StageRecord{Status: types.StatusActive}, IconActive},
		{"passed", &types.StageRecord{Status: types.StatusCompleted, Verdict: verdictPtr(types.VerdictPass)}, IconPass},
		{"issues completed", &types.StageRecord{Status: types.StatusCompleted, Verdict: verdictPtr(types.VerdictIssues)}, IconWarn},
		{"failed awaiting retry", &types.StageRecord{Status: types.StatusPending, Verdict: verdictPtr(types.VerdictFail)}, IconFail},
		{"escalated", &types.StageRecord{Status: types.StatusPending, Escalated: true}, IconWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderStageIcon(tt.rec); got != tt.want {
				t.Errorf("RenderStageIcon = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderCounterAndVerdict(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	if got := RenderCounter("fail", 2, 3); got != "fail 2/3" {
		t.Errorf("RenderCounter = %q", got)
	}
	if got := RenderVerdict(""); got != "-" {
		t.Errorf("RenderVerdict(\"\") = %q", got)
	}
	if got := RenderVerdict(types.VerdictReject); !strings.Contains(got, "reject") {
		t.Errorf("RenderVerdict(reject) = %q", got)
	}
}
