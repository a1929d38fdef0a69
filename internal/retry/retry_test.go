package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/conductor/internal/types"
)

func TestApplyPass(t *testing.T) {
	c := types.Counters{Fail: 2, Reject: 1, Issues: 1}
	out := Apply(&c, types.VerdictPass)

	assert.Equal(t, KindCompleted, out.Kind)
	assert.Equal(t, types.StatusCompleted, out.Status())
	assert.Equal(t, types.Counters{Fail: 2, Reject: 1, Issues: 1}, c, "pass must not touch counters")
}

func TestApplyRetryThenEscalate(t *testing.T) {
	var c types.Counters

	first := Apply(&c, types.VerdictFail)
	assert.Equal(t, KindRetry, first.Kind)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, types.StatusPending, first.Status())

	second := Apply(&c, types.VerdictFail)
	assert.False(t, second.Escalated(), "2 must not escalate")
	assert.True(t, second.Retrying())

	third := Apply(&c, types.VerdictFail)
	assert.True(t, third.Escalated(), "3 must escalate")
	assert.Equal(t, 3, c.Fail)
	assert.Equal(t, types.StatusPending, third.Status())
	assert.Contains(t, third.Reason(), "fail count reached 3")

	// Past the threshold it stays escalated.
	fourth := Apply(&c, types.VerdictFail)
	assert.True(t, fourth.Escalated())
	assert.Equal(t, 4, fourth.Count)
}

func TestApplyCountersAreIndependent(t *testing.T) {
	var c types.Counters
	Apply(&c, types.VerdictFail)
	Apply(&c, types.VerdictFail)
	out := Apply(&c, types.VerdictIssues)

	assert.Equal(t, types.CounterIssues, out.Counter)
	assert.Equal(t, 1, out.Count)
	assert.False(t, out.Escalated())
	assert.False(t, out.DualFailure, "issues never participates in dual failure")
}

func TestApplyDualFailure(t *testing.T) {
	tests := []struct {
		name      string
		before    types.Counters
		verdict   types.Verdict
		wantDual  bool
		wantOther types.CounterKind
		wantFail  int
		wantRej   int
	}{
		{"reject with fail on record", types.Counters{Fail: 1}, types.VerdictReject, true, types.CounterFail, 1, 1},
		{"fail with reject on record", types.Counters{Reject: 2}, types.VerdictFail, true, types.CounterReject, 1, 2},
		{"fail alone", types.Counters{Issues: 2}, types.VerdictFail, false, "", 1, 0},
		{"reject alone", types.Counters{}, types.VerdictReject, false, "", 0, 1},
		{"repeat fail", types.Counters{Fail: 1}, types.VerdictFail, false, "", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.before
			out := Apply(&c, tt.verdict)
			assert.Equal(t, tt.wantDual, out.DualFailure)
			assert.Equal(t, tt.wantOther, out.Other)
			fail, rej := out.FailCount()
			assert.Equal(t, tt.wantFail, fail)
			assert.Equal(t, tt.wantRej, rej)
		})
	}
}

// Counters never decrease, whatever the verdict sequence.
func TestCountersMonotonic(t *testing.T) {
	verdicts := []types.Verdict{types.VerdictPass, types.VerdictFail, types.VerdictReject, types.VerdictIssues}
	var c types.Counters
	prev := c
	// Deterministic pseudo-random walk over verdicts.
	seed := 7
	for i := 0; i < 200; i++ {
		seed = (seed*31 + 11) % 97
		Apply(&c, verdicts[seed%len(verdicts)])
		assert.GreaterOrEqual(t, c.Fail, prev.Fail)
		assert.GreaterOrEqual(t, c.Reject, prev.Reject)
		assert.GreaterOrEqual(t, c.Issues, prev.Issues)
		prev = c
	}
}
