// Package retry applies the retry/escalation policy to a classified verdict.
//
// Each negative verdict bumps its own counter (fail, reject, issues). The
// counters live on the persisted workflow state and never go down; a later
// pass leaves them untouched. When the bumped counter reaches Threshold the
// outcome is escalated and automatic retry stops until a human resumes the
// stage.
package retry

import (
	"fmt"

	"github.com/steveyegge/conductor/internal/types"
)

// Threshold is the number of same-kind negative verdicts that escalates.
const Threshold = 3

// Kind is the disposition of one report.
type Kind string

// Outcome kinds
const (
	KindCompleted Kind = "completed"
	KindRetry     Kind = "retry"
	KindEscalated Kind = "escalated"
)

// Outcome is the result of applying the policy to one verdict.
type Outcome struct {
	Kind    Kind
	Verdict types.Verdict

	// Counter is the counter the verdict bumped ("" on pass) and Count its
	// value after the bump.
	Counter types.CounterKind
	Count   int

	// DualFailure is set when a test failure and a review rejection are both
	// on record. Other/OtherCount describe the counter that was already
	// non-zero.
	DualFailure bool
	Other       types.CounterKind
	OtherCount  int
}

// Apply bumps the counter for v (if any) and returns the outcome. Counters
// are mutated in place and only ever incremented.
func Apply(c *types.Counters, v types.Verdict) Outcome {
	kind := types.KindFor(v)
	if kind == "" {
		return Outcome{Kind: KindCompleted, Verdict: v}
	}

	out := Outcome{Kind: KindRetry, Verdict: v, Counter: kind}

	// Evaluated against the counters as they stood before this report.
	switch kind {
	case types.CounterFail:
		if c.Reject > 0 {
			out.DualFailure, out.Other, out.OtherCount = true, types.CounterReject, c.Reject
		}
	case types.CounterReject:
		if c.Fail > 0 {
			out.DualFailure, out.Other, out.OtherCount = true, types.CounterFail, c.Fail
		}
	}

	out.Count = c.Increment(kind)
	if out.Count >= Threshold {
		out.Kind = KindEscalated
	}
	return out
}

// Status is the stage status implied by the outcome. Both retry and
// escalation leave the stage pending: a retry is picked up automatically,
// an escalated stage waits for a manual resume.
func (o Outcome) Status() types.Status {
	if o.Kind == KindCompleted {
		return types.StatusCompleted
	}
	return types.StatusPending
}

// Escalated reports whether automatic retry stops here.
func (o Outcome) Escalated() bool {
	return o.Kind == KindEscalated
}

// Retrying reports whether the stage goes back for another automatic attempt.
func (o Outcome) Retrying() bool {
	return o.Kind == KindRetry
}

// FailCount returns the counts of fail and reject, in that order, as they
// stand after this outcome. Used by dual-failure notices that always list the
// test failure first.
func (o Outcome) FailCount() (fail, reject int) {
	switch {
	case o.Counter == types.CounterFail:
		fail = o.Count
		if o.DualFailure {
			reject = o.OtherCount
		}
	case o.Counter == types.CounterReject:
		reject = o.Count
		if o.DualFailure {
			fail = o.OtherCount
		}
	}
	return fail, reject
}

// Reason is a short human-readable explanation for fatal events.
func (o Outcome) Reason() string {
	if !o.Escalated() {
		return ""
	}
	return fmt.Sprintf("%s count reached %d (threshold %d)", o.Counter, o.Count, Threshold)
}
