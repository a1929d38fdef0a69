package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newState(pairs ...string) *WorkflowState {
	st := &WorkflowState{Workflow: "feature", Stages: NewStageMap(), ActiveWorkers: map[string]*ActiveWorker{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		st.Stages.Set(pairs[i], &StageRecord{Status: Status(pairs[i+1])})
	}
	return st
}

func TestStageMapPreservesOrder(t *testing.T) {
	st := newState("PLAN", "completed", "TEST", "pending", "DEV", "pending", "REVIEW", "pending", "TEST:2", "pending", "RETRO", "pending")
	st.Current = "TEST"
	st.Stages.Get("PLAN").SetVerdict(VerdictPass)

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Key order in the document follows declaration order, not alphabetical.
	doc := string(data)
	order := []string{`"PLAN"`, `"TEST"`, `"DEV"`, `"REVIEW"`, `"TEST:2"`, `"RETRO"`}
	last := -1
	for _, k := range order {
		idx := strings.Index(doc, k+":")
		if idx <= last {
			t.Fatalf("key %s out of order in %s", k, doc)
		}
		last = idx
	}

	var back WorkflowState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := back.Stages.Keys()
	want := []string{"PLAN", "TEST", "DEV", "REVIEW", "TEST:2", "RETRO"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if back.Stages.Get("PLAN").LastVerdict() != VerdictPass {
		t.Errorf("verdict lost in round trip")
	}
	if back.Stages.Get("TEST").Verdict != nil {
		t.Errorf("unset verdict should decode as null")
	}
}

func TestStageMapRejectsDuplicateKeys(t *testing.T) {
	var m StageMap
	err := json.Unmarshal([]byte(`{"DEV":{"status":"pending","verdict":null},"DEV":{"status":"active","verdict":null}}`), &m)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestStageMapCloneIsDeep(t *testing.T) {
	st := newState("DEV", "pending")
	st.Stages.Get("DEV").SetVerdict(VerdictFail)
	clone := st.Stages.Clone()
	clone.Get("DEV").Status = StatusCompleted
	clone.Get("DEV").SetVerdict(VerdictPass)

	if st.Stages.Get("DEV").Status != StatusPending {
		t.Error("clone shares records with original")
	}
	if st.Stages.Get("DEV").LastVerdict() != VerdictFail {
		t.Error("clone shares verdict pointer with original")
	}
}

func TestCounters(t *testing.T) {
	var c Counters
	if got := c.Increment(CounterFail); got != 1 {
		t.Errorf("Increment(fail) = %d, want 1", got)
	}
	c.Increment(CounterReject)
	c.Increment(CounterReject)
	if c.Get(CounterReject) != 2 || c.Get(CounterIssues) != 0 {
		t.Errorf("unexpected counters %+v", c)
	}
	if c.Increment("bogus") != 0 {
		t.Error("unknown counter kind should be ignored")
	}
}

func TestKindFor(t *testing.T) {
	tests := map[Verdict]CounterKind{
		VerdictPass:   "",
		VerdictFail:   CounterFail,
		VerdictReject: CounterReject,
		VerdictIssues: CounterIssues,
		"other":       "",
	}
	for v, want := range tests {
		if got := KindFor(v); got != want {
			t.Errorf("KindFor(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkflowState)
		wantErr string
	}{
		{"valid", func(s *WorkflowState) {}, ""},
		{"missing workflow", func(s *WorkflowState) { s.Workflow = "" }, "workflow is required"},
		{"pointer on completed", func(s *WorkflowState) { s.Current = "DEV" }, "is completed"},
		{"pointer unknown", func(s *WorkflowState) { s.Current = "NOPE" }, "not in the state"},
		{"bad status", func(s *WorkflowState) { s.Stages.Get("TEST").Status = "done" }, "invalid status"},
		{"negative counter", func(s *WorkflowState) { s.Counters.Fail = -1 }, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState("DEV", "completed", "TEST", "pending")
			st.Current = "TEST"
			tt.mutate(st)
			err := st.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMustStage(t *testing.T) {
	st := newState("DEV", "pending")
	if _, err := st.MustStage("DEV"); err != nil {
		t.Fatalf("MustStage(DEV): %v", err)
	}
	_, err := st.MustStage("REVIEW")
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("MustStage(REVIEW) error = %v, want ErrUnknownStage", err)
	}
}

func TestFirstOpenAndIsComplete(t *testing.T) {
	st := newState("DEV", "completed", "REVIEW", "active", "TEST", "pending")
	if got := st.FirstOpen(0); got != "REVIEW" {
		t.Errorf("FirstOpen(0) = %q, want REVIEW", got)
	}
	if got := st.FirstOpen(2); got != "TEST" {
		t.Errorf("FirstOpen(2) = %q, want TEST", got)
	}
	if st.IsComplete() {
		t.Error("state with open stages reported complete")
	}

	done := newState("DEV", "completed")
	if !done.IsComplete() {
		t.Error("all-completed state with empty pointer should be complete")
	}
}

func TestWorkersOn(t *testing.T) {
	now := time.Now()
	st := newState("REVIEW", "active", "TEST", "active")
	st.ActiveWorkers["tester"] = &ActiveWorker{Stage: "TEST", StartedAt: now.Add(time.Second)}
	st.ActiveWorkers["reviewer"] = &ActiveWorker{Stage: "REVIEW", StartedAt: now}
	st.ActiveWorkers["tester-2"] = &ActiveWorker{Stage: "TEST", StartedAt: now}

	got := st.WorkersOn("REVIEW")
	if strings.Join(got, ",") != "tester-2,tester" {
		t.Errorf("WorkersOn(REVIEW) = %v", got)
	}
}

func TestEventPayloadShapes(t *testing.T) {
	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		ev      *Event
		want    []string
		notWant []string
	}{
		{
			name:    "complete",
			ev:      NewStageCompleteEvent("DEV", VerdictPass),
			want:    []string{`"verdict":"pass"`},
			notWant: []string{`failCount`, `reason`},
		},
		{
			name:    "retry after a rejection keeps a zero fail count",
			ev:      NewStageRetryEvent("REVIEW", 0, CounterReject, 1),
			want:    []string{`"failCount":0`, `"counter":"reject"`, `"count":1`},
			notWant: []string{`verdict`, `reason`},
		},
		{
			name:    "fatal",
			ev:      NewFatalEvent("TEST", "fail count reached 3"),
			want:    []string{`"reason":"fail count reached 3"`},
			notWant: []string{`failCount`, `verdict`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.Timestamp = ts
			data, err := json.Marshal(tt.ev)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			doc := string(data)
			for _, w := range append(tt.want, `"stage":"`+tt.ev.Stage+`"`, `"type":"`+string(tt.ev.Type)+`"`) {
				if !strings.Contains(doc, w) {
					t.Errorf("%s missing %s", doc, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(doc, w) {
					t.Errorf("%s should not contain %s", doc, w)
				}
			}

			var back Event
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if back.Type != tt.ev.Type || back.FailCount != tt.ev.FailCount || back.Counter != tt.ev.Counter {
				t.Errorf("decoded %+v, want %+v", back, tt.ev)
			}
		})
	}
}
