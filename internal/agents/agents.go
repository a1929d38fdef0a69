// Package agents maps a worker (subagent type, name, task description) to
// the base stage it is working on.
package agents

import (
	"regexp"
	"sort"
	"strings"

	"github.com/steveyegge/conductor/internal/registry"
)

// Query describes the worker to identify.
type Query struct {
	AgentType   string // e.g. "reviewer", from the hook's agent_type
	Name        string // optional worker name
	Description string // free task description
}

// Identifier resolves which base stage a worker belongs to.
type Identifier interface {
	// Identify returns the best base name among candidates, or "" when no
	// candidate matches.
	Identify(q Query, candidates []string) string
}

// StandardIdentifier implements the default matching logic against the
// registry's per-stage agent names and labels.
type StandardIdentifier struct {
	reg *registry.Registry
}

var _ Identifier = (*StandardIdentifier)(nil)

// NewStandardIdentifier creates a new StandardIdentifier
func NewStandardIdentifier(reg *registry.Registry) *StandardIdentifier {
	return &StandardIdentifier{reg: reg}
}

// Identify implements Identifier.
func (id *StandardIdentifier) Identify(q Query, candidates []string) string {
	ranked := id.Rank(q, candidates)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0]
}

// Rank returns the matching candidates, best first. Candidates that score
// zero are dropped; ties keep candidate order.
func (id *StandardIdentifier) Rank(q Query, candidates []string) []string {
	type scored struct {
		base  string
		score int
	}

	var matches []scored
	for _, base := range candidates {
		if s := id.score(q, base); s > 0 {
			matches = append(matches, scored{base, s})
		}
	}

	// Sort by score descending
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.base
	}
	return out
}

func (id *StandardIdentifier) score(q Query, base string) int {
	agentType := strings.TrimSpace(q.AgentType)
	agent := id.reg.Agent(base)

	score := 0

	// 1. The worker type is the stage's declared agent (+100) or the stage
	// name itself (+90).
	if agentType != "" {
		switch {
		case agent != "" && strings.EqualFold(agentType, agent):
			score += 100
		case strings.EqualFold(agentType, base):
			score += 90
		case agent != "" && containsFold(agentType, agent):
			// "code-reviewer" for agent "reviewer"
			score += 50
		}
	}
	if q.Name != "" && agent != "" && strings.EqualFold(q.Name, agent) {
		score += 40
	}

	// 2. Description mentions: stage name as a word (+20), label (+10).
	if q.Description != "" {
		if wordRe(base).MatchString(q.Description) {
			score += 20
		}
		if label := id.reg.Label(base); label != base && containsFold(q.Description, label) {
			score += 10
		}
	}
	return score
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// wordRe matches name as a whole word, case-sensitively: stage names are
// upper case by convention and "test" in prose should not hit TEST.
func wordRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}
