// Package convergence detects when a parallel join group has fully completed.
package convergence

import (
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/types"
)

// Keys returns the state keys, in declaration order, whose base belongs to g.
func Keys(st *types.WorkflowState, g *registry.Group) []string {
	if st == nil || st.Stages == nil || g == nil {
		return nil
	}
	var out []string
	for _, key := range st.Stages.Keys() {
		if g.Has(stagekey.Base(key)) {
			out = append(out, key)
		}
	}
	return out
}

// Detect returns the name of the first group whose member keys in st are all
// completed, or "" when none has converged. Groups with fewer than two keys
// in this instance do not apply. Detect is a pure read.
func Detect(st *types.WorkflowState, groups []*registry.Group) string {
	for _, g := range groups {
		keys := Keys(st, g)
		if len(keys) < 2 {
			continue
		}
		done := true
		for _, key := range keys {
			if st.Stages.Get(key).Status != types.StatusCompleted {
				done = false
				break
			}
		}
		if done {
			return g.Name
		}
	}
	return ""
}

// LastIndex returns the index of the last key of group g in st, or -1.
func LastIndex(st *types.WorkflowState, g *registry.Group) int {
	keys := Keys(st, g)
	if len(keys) == 0 {
		return -1
	}
	return st.Stages.Index(keys[len(keys)-1])
}
