// Package hint renders the next recommended action for the driving agent.
//
// Every function here is a pure read of the workflow state and registry.
// Output is short Markdown so it reads well both raw (hook stdout) and
// rendered (conductor hint on a terminal).
package hint

import (
	"fmt"
	"strings"

	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/retry"
	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/types"
)

// HumanInterventionMarker opens every escalation notice.
const HumanInterventionMarker = "HUMAN INTERVENTION REQUIRED"

// DualFailureMarker opens every combined test-failure/review-rejection notice.
const DualFailureMarker = "DOUBLE FAILURE"

// Next proposes the next action. justCompleted is the key that just
// transitioned ("" when called outside a report). Returns "" when the
// pipeline is finished.
func Next(st *types.WorkflowState, reg *registry.Registry, justCompleted string) string {
	if st == nil || st.Current == "" {
		return ""
	}

	if others := st.WorkersOn(justCompleted); len(others) > 0 {
		parts := make([]string, len(others))
		for i, name := range others {
			parts[i] = fmt.Sprintf("`%s` (%s)", name, st.ActiveWorkers[name].Stage)
		}
		return fmt.Sprintf("⏳ Waiting on other parallel worker(s): %s. Do not advance until they report.",
			strings.Join(parts, ", "))
	}

	// An escalated stage is never proposed again until a human resumes it.
	if rec := st.Stage(st.Current); rec != nil && rec.Escalated {
		return Blocked(st)
	}

	base := stagekey.Base(st.Current)
	if g := reg.GroupOf(base); g != nil {
		pending := pendingSiblings(st, g)
		for _, key := range pending {
			if st.Stages.Get(key).Escalated {
				return Blocked(st)
			}
		}
		switch {
		case len(pending) >= 2:
			var b strings.Builder
			fmt.Fprintf(&b, "🔀 Delegate these %d stages in parallel:", len(pending))
			for _, key := range pending {
				fmt.Fprintf(&b, "\n- %s", describe(st, reg, key))
			}
			return b.String()
		case len(pending) == 1:
			return single(st, reg, pending[0])
		}
	}

	if !reg.Known(base) {
		return fmt.Sprintf("➡️ Next: execute **%s**.", st.Current)
	}
	return single(st, reg, st.Current)
}

// pendingSiblings returns the pending keys of group g in the contiguous run
// of group keys that contains the pointer. A base that appears both before
// and inside the parallel block (an early TEST pass ahead of the REVIEW/TEST
// block) therefore does not pull its stale attempt into the delegation.
func pendingSiblings(st *types.WorkflowState, g *registry.Group) []string {
	keys := st.Stages.Keys()
	idx := st.Stages.Index(st.Current)
	if idx < 0 {
		return nil
	}
	lo, hi := idx, idx
	for lo > 0 && g.Has(stagekey.Base(keys[lo-1])) {
		lo--
	}
	for hi < len(keys)-1 && g.Has(stagekey.Base(keys[hi+1])) {
		hi++
	}
	var out []string
	for _, key := range keys[lo : hi+1] {
		if st.Stages.Get(key).Status == types.StatusPending {
			out = append(out, key)
		}
	}
	return out
}

func single(st *types.WorkflowState, reg *registry.Registry, key string) string {
	return "➡️ Next: " + describe(st, reg, key)
}

// describe renders "**KEY** (Label, mode) → `agent`".
func describe(st *types.WorkflowState, reg *registry.Registry, key string) string {
	base := stagekey.Base(key)
	label := reg.Label(base)
	if rec := st.Stage(key); rec != nil && rec.Mode != "" {
		label += ", " + rec.Mode
	}
	s := fmt.Sprintf("**%s** (%s)", key, label)
	if icon := reg.Icon(base); icon != "" {
		s = icon + " " + s
	}
	if agent := reg.Agent(base); agent != "" {
		s += fmt.Sprintf(" → delegate to `%s`", agent)
	}
	return s
}

// Retry renders the notice for a retry-eligible negative verdict.
func Retry(reg *registry.Registry, key string, out retry.Outcome) string {
	roles := reg.Roles()
	switch out.Counter {
	case types.CounterFail:
		return fmt.Sprintf("🔁 **%s** failed (fail count %d/%d). Delegate debugging to the `%s` agent, then re-run %s.",
			key, out.Count, retry.Threshold, orDefault(roles.Debugger, "debugger"), key)
	case types.CounterReject:
		return fmt.Sprintf("🔁 **%s** rejected (reject count %d/%d). Delegate the requested changes to the `%s` agent, then re-run %s.",
			key, out.Count, retry.Threshold, orDefault(roles.Developer, "developer"), key)
	case types.CounterIssues:
		return fmt.Sprintf("🔁 **%s** reported issues (issues count %d/%d). Address the improvement items with the `%s` agent, then re-run %s.",
			key, out.Count, retry.Threshold, orDefault(roles.Developer, "developer"), key)
	}
	return ""
}

// DualFailure renders one combined notice when a test failure and a review
// rejection are both on record. The test failure is always remediated first.
func DualFailure(reg *registry.Registry, key string, out retry.Outcome) string {
	roles := reg.Roles()
	fail, reject := out.FailCount()
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ **%s**: tests are failing (fail count %d/%d) and the review was rejected (reject count %d/%d).\n",
		DualFailureMarker, fail, retry.Threshold, reject, retry.Threshold)
	b.WriteString("Coordinated remediation order:\n")
	fmt.Fprintf(&b, "1. Delegate debugging to the `%s` agent and fix the failing tests first.\n", orDefault(roles.Debugger, "debugger"))
	fmt.Fprintf(&b, "2. Then have the `%s` agent address the review rejection.\n", orDefault(roles.Developer, "developer"))
	fmt.Fprintf(&b, "3. Re-run the test and review stages (reported by %s).", key)
	return b.String()
}

// Escalation renders the terminal notice shown when a counter reaches the
// threshold. It never proposes an automatic retry.
func Escalation(key string, out retry.Outcome) string {
	var what string
	switch out.Counter {
	case types.CounterFail:
		what = "failed"
	case types.CounterReject:
		what = "was rejected"
	default:
		what = "reported issues"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🛑 **%s**: %s %s %d times (threshold %d). Automatic retry has stopped.",
		HumanInterventionMarker, key, what, out.Count, retry.Threshold)
	if out.DualFailure {
		fmt.Fprintf(&b, "\nAlso on record: %s count %d.", out.Other, out.OtherCount)
	}
	fmt.Fprintf(&b, "\nInvestigate manually, then run `conductor resume --stage %s`.", key)
	return b.String()
}

// Blocked returns a human-intervention notice when any stage that is not yet
// completed is escalated, or "" otherwise.
func Blocked(st *types.WorkflowState) string {
	if st == nil || st.Stages == nil {
		return ""
	}
	var keys []string
	for _, key := range st.Stages.Keys() {
		if rec := st.Stages.Get(key); rec.Escalated && rec.Status != types.StatusCompleted {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	return fmt.Sprintf("🛑 **%s**: %s escalated (fail %d, reject %d, issues %d). Automatic retry has stopped; resume with `conductor resume --stage %s`.",
		HumanInterventionMarker, strings.Join(keys, ", "), st.Counters.Fail, st.Counters.Reject, st.Counters.Issues, keys[0])
}

// Summary renders the completion summary for a finished pipeline.
func Summary(st *types.WorkflowState, reg *registry.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Pipeline **%s** complete (%d stages).", st.Workflow, st.Stages.Len())
	for _, key := range st.Stages.Keys() {
		rec := st.Stages.Get(key)
		v := rec.LastVerdict()
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "\n- %s %s: %s", key, reg.Label(stagekey.Base(key)), v)
	}
	c := st.Counters
	fmt.Fprintf(&b, "\nCounters: fail %d, reject %d, issues %d.", c.Fail, c.Reject, c.Issues)
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
