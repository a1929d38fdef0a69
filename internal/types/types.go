// Package types defines core data structures for the conductor workflow engine.
package types

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a single stage attempt.
type Status string

// Stage status constants
const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status value is recognized
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// IsOpen reports whether the stage can still be worked on (pending or active).
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusActive
}

// Verdict is the classified outcome of one stage attempt.
type Verdict string

// Verdict constants
const (
	VerdictPass   Verdict = "pass"
	VerdictFail   Verdict = "fail"
	VerdictReject Verdict = "reject"
	VerdictIssues Verdict = "issues"
)

// IsValid checks if the verdict value is recognized
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictPass, VerdictFail, VerdictReject, VerdictIssues:
		return true
	}
	return false
}

// IsPass returns true if the verdict lets the stage complete.
func (v Verdict) IsPass() bool {
	return v == VerdictPass
}

// Category groups base stage names by how their reports are classified.
type Category string

// Category constants
const (
	CategoryReview Category = "review"
	CategoryTest   Category = "test"
	CategoryRetro  Category = "retro"
	CategoryOther  Category = "other"
)

// IsValid checks if the category value is recognized
func (c Category) IsValid() bool {
	switch c {
	case CategoryReview, CategoryTest, CategoryRetro, CategoryOther:
		return true
	}
	return false
}

// StageRecord is the persisted state of one concrete stage key.
type StageRecord struct {
	Status    Status   `json:"status"`
	Verdict   *Verdict `json:"verdict"`             // nil until the first report
	Mode      string   `json:"mode,omitempty"`      // e.g. "spec" vs "verify" for repeated base names
	Attempts  int      `json:"attempts,omitempty"`  // reports processed for this key
	Escalated bool     `json:"escalated,omitempty"` // a counter hit the threshold on this stage
}

// SetVerdict records the latest verdict for the stage.
func (r *StageRecord) SetVerdict(v Verdict) {
	r.Verdict = &v
}

// LastVerdict returns the recorded verdict or "" when none has been recorded.
func (r *StageRecord) LastVerdict() Verdict {
	if r == nil || r.Verdict == nil {
		return ""
	}
	return *r.Verdict
}

// ActiveWorker ties a running worker to the stage key it is working on.
type ActiveWorker struct {
	Stage     string    `json:"stage"`
	StartedAt time.Time `json:"started_at"`
}

// Counters are the three independent negative-verdict counters of a pipeline
// instance. They only ever grow.
type Counters struct {
	Fail   int `json:"fail"`
	Reject int `json:"reject"`
	Issues int `json:"issues"`
}

// CounterKind names one of the three counters.
type CounterKind string

// Counter kinds
const (
	CounterFail   CounterKind = "fail"
	CounterReject CounterKind = "reject"
	CounterIssues CounterKind = "issues"
)

// KindFor maps a negative verdict to the counter it increments.
// Returns "" for pass and unknown verdicts.
func KindFor(v Verdict) CounterKind {
	switch v {
	case VerdictFail:
		return CounterFail
	case VerdictReject:
		return CounterReject
	case VerdictIssues:
		return CounterIssues
	}
	return ""
}

// Get returns the value of the named counter.
func (c Counters) Get(kind CounterKind) int {
	switch kind {
	case CounterFail:
		return c.Fail
	case CounterReject:
		return c.Reject
	case CounterIssues:
		return c.Issues
	}
	return 0
}

// Increment bumps the named counter and returns its new value.
func (c *Counters) Increment(kind CounterKind) int {
	switch kind {
	case CounterFail:
		c.Fail++
		return c.Fail
	case CounterReject:
		c.Reject++
		return c.Reject
	case CounterIssues:
		c.Issues++
		return c.Issues
	}
	return 0
}

// WorkflowState is the persisted record for one pipeline instance.
type WorkflowState struct {
	InstanceID    string                   `json:"instance_id"`
	Workflow      string                   `json:"workflow"`
	Stages        *StageMap                `json:"stages"`
	Current       string                   `json:"current"`
	ActiveWorkers map[string]*ActiveWorker `json:"active_workers"`
	Counters      Counters                 `json:"counters"`
	Spec          string                   `json:"spec,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
}

// Stage returns the record for key, or nil if the key is not part of the state.
func (s *WorkflowState) Stage(key string) *StageRecord {
	if s == nil || s.Stages == nil {
		return nil
	}
	return s.Stages.Get(key)
}

// MustStage returns the record for key or an error wrapping ErrUnknownStage.
// Used by operations that take a literal key, where a missing key is a
// caller bug rather than an ambiguous report.
func (s *WorkflowState) MustStage(key string) (*StageRecord, error) {
	rec := s.Stage(key)
	if rec == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, key)
	}
	return rec, nil
}

// IsComplete returns true when the pointer is cleared and every stage is completed.
func (s *WorkflowState) IsComplete() bool {
	if s.Current != "" {
		return false
	}
	for _, key := range s.Stages.Keys() {
		if s.Stages.Get(key).Status != StatusCompleted {
			return false
		}
	}
	return true
}

// FirstOpen returns the first key in declaration order whose status is
// pending or active, starting at index from. Returns "" when none remain.
func (s *WorkflowState) FirstOpen(from int) string {
	keys := s.Stages.Keys()
	if from < 0 {
		from = 0
	}
	for i := from; i < len(keys); i++ {
		if s.Stages.Get(keys[i]).Status.IsOpen() {
			return keys[i]
		}
	}
	return ""
}

// WorkersOn returns the names of active workers tied to keys other than
// except, sorted by start time.
func (s *WorkflowState) WorkersOn(except string) []string {
	var names []string
	for name, w := range s.ActiveWorkers {
		if w == nil || w.Stage == except {
			continue
		}
		names = append(names, name)
	}
	sortWorkers(names, s.ActiveWorkers)
	return names
}

// Validate checks the structural invariants of the state document.
func (s *WorkflowState) Validate() error {
	if s.Workflow == "" {
		return fmt.Errorf("workflow is required")
	}
	if s.Stages == nil || s.Stages.Len() == 0 {
		return fmt.Errorf("state has no stages")
	}
	for _, key := range s.Stages.Keys() {
		rec := s.Stages.Get(key)
		if !rec.Status.IsValid() {
			return fmt.Errorf("stage %s: invalid status %q", key, rec.Status)
		}
		if rec.Verdict != nil && !rec.Verdict.IsValid() {
			return fmt.Errorf("stage %s: invalid verdict %q", key, *rec.Verdict)
		}
	}
	if s.Current != "" {
		rec := s.Stages.Get(s.Current)
		if rec == nil {
			return fmt.Errorf("current stage %q is not in the state", s.Current)
		}
		if !rec.Status.IsOpen() {
			return fmt.Errorf("current stage %q is %s", s.Current, rec.Status)
		}
	}
	if s.Counters.Fail < 0 || s.Counters.Reject < 0 || s.Counters.Issues < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	return nil
}
