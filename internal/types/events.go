package types

import (
	"encoding/json"
	"time"
)

// EventType identifies a telemetry event emitted by the transition controller.
type EventType string

// Event types. The payload shape of each type is fixed:
//
//	stage-complete {stage, verdict}
//	stage-retry    {stage, failCount} plus the counter that was bumped
//	fatal          {stage, reason}
const (
	EventStageComplete EventType = "stage-complete"
	EventStageRetry    EventType = "stage-retry"
	EventFatal         EventType = "fatal"
)

// Event is one append-only telemetry record.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	Type       EventType `json:"type"`
	InstanceID string    `json:"instance_id,omitempty"`
	Workflow   string    `json:"workflow,omitempty"`
	Stage      string    `json:"stage"`
	Verdict    Verdict   `json:"verdict,omitempty"`
	Reason     string    `json:"reason,omitempty"`

	// FailCount is the fail counter of the instance, whichever counter the
	// retry bumped. Counter and Count name the bumped counter.
	FailCount int         `json:"failCount"`
	Counter   CounterKind `json:"counter,omitempty"`
	Count     int         `json:"count,omitempty"`
}

// NewStageCompleteEvent builds a stage-complete event.
func NewStageCompleteEvent(stage string, v Verdict) *Event {
	return &Event{Type: EventStageComplete, Stage: stage, Verdict: v}
}

// NewStageRetryEvent builds a stage-retry event. failCount is the fail
// counter; counter/count describe the counter the retry bumped.
func NewStageRetryEvent(stage string, failCount int, counter CounterKind, count int) *Event {
	return &Event{Type: EventStageRetry, Stage: stage, FailCount: failCount, Counter: counter, Count: count}
}

// NewFatalEvent builds a fatal event.
func NewFatalEvent(stage, reason string) *Event {
	return &Event{Type: EventFatal, Stage: stage, Reason: reason}
}

type eventHeader struct {
	Timestamp  time.Time `json:"ts"`
	Type       EventType `json:"type"`
	InstanceID string    `json:"instance_id,omitempty"`
	Workflow   string    `json:"workflow,omitempty"`
	Stage      string    `json:"stage"`
}

// MarshalJSON writes only the payload fields of the event's type, so a
// stage-retry always carries failCount, zero included.
func (e Event) MarshalJSON() ([]byte, error) {
	h := eventHeader{e.Timestamp, e.Type, e.InstanceID, e.Workflow, e.Stage}
	switch e.Type {
	case EventStageComplete:
		return json.Marshal(struct {
			eventHeader
			Verdict Verdict `json:"verdict"`
		}{h, e.Verdict})
	case EventStageRetry:
		return json.Marshal(struct {
			eventHeader
			FailCount int         `json:"failCount"`
			Counter   CounterKind `json:"counter,omitempty"`
			Count     int         `json:"count,omitempty"`
		}{h, e.FailCount, e.Counter, e.Count})
	case EventFatal:
		return json.Marshal(struct {
			eventHeader
			Reason string `json:"reason"`
		}{h, e.Reason})
	}
	type plain Event
	return json.Marshal(plain(e))
}
