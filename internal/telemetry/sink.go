package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/conductor/internal/types"
)

const eventsScopeName = "github.com/steveyegge/conductor/events"

// EventSink counts stage events in conductor.stage.events and attaches each
// one to the active span. It satisfies eventlog.Sink.
type EventSink struct {
	events metric.Int64Counter
}

// NewEventSink builds a sink on the global meter provider. It is safe to use
// with telemetry disabled: the no-op provider makes Emit free.
func NewEventSink() *EventSink {
	return NewEventSinkWithMeter(Meter(eventsScopeName))
}

// NewEventSinkWithMeter builds a sink on m.
func NewEventSinkWithMeter(m metric.Meter) *EventSink {
	events, _ := m.Int64Counter("conductor.stage.events",
		metric.WithDescription("Stage events emitted by the transition controller"),
	)
	return &EventSink{events: events}
}

// Emit records ev.
func (s *EventSink) Emit(ctx context.Context, ev *types.Event) error {
	attrs := []attribute.KeyValue{
		attribute.String("conductor.event.type", string(ev.Type)),
		attribute.String("conductor.stage", ev.Stage),
		attribute.String("conductor.workflow", ev.Workflow),
	}
	switch ev.Type {
	case types.EventStageComplete:
		attrs = append(attrs, attribute.String("conductor.verdict", string(ev.Verdict)))
	case types.EventStageRetry:
		attrs = append(attrs,
			attribute.Int("conductor.fail_count", ev.FailCount),
			attribute.String("conductor.counter", string(ev.Counter)))
	}
	s.events.Add(ctx, 1, metric.WithAttributes(attrs...))
	trace.SpanFromContext(ctx).AddEvent(string(ev.Type), trace.WithAttributes(attrs...))
	return nil
}
