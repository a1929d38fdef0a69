package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/conductor/internal/state"
	"github.com/steveyegge/conductor/internal/types"
)

const storeScopeName = "github.com/steveyegge/conductor/state"

// InstrumentedStore wraps state.Store with OTel tracing and metrics.
// Every call gets a span and is counted in conductor.state.* metrics.
type InstrumentedStore struct {
	inner  state.Store
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapStore(s state.Store) state.Store {
	if !Enabled() {
		return s
	}
	return NewInstrumentedStore(s, Tracer(storeScopeName), Meter(storeScopeName))
}

// NewInstrumentedStore decorates s using the given tracer and meter.
func NewInstrumentedStore(s state.Store, tracer trace.Tracer, m metric.Meter) *InstrumentedStore {
	ops, _ := m.Int64Counter("conductor.state.operations",
		metric.WithDescription("Total state document operations"),
	)
	dur, _ := m.Float64Histogram("conductor.state.operation.duration",
		metric.WithDescription("State document operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("conductor.state.errors",
		metric.WithDescription("Total state document operation errors"),
	)
	return &InstrumentedStore{inner: s, tracer: tracer, ops: ops, dur: dur, errs: errs}
}

func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("conductor.state.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "state."+name, trace.WithAttributes(all...))
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// Load implements state.Store.
func (s *InstrumentedStore) Load(ctx context.Context) (*types.WorkflowState, error) {
	ctx, span, t := s.op(ctx, "Load")
	st, err := s.inner.Load(ctx)
	if st != nil {
		span.SetAttributes(stateAttrs(st)...)
	}
	s.done(ctx, span, t, err)
	return st, err
}

// Save implements state.Store.
func (s *InstrumentedStore) Save(ctx context.Context, st *types.WorkflowState) error {
	attrs := stateAttrs(st)
	ctx, span, t := s.op(ctx, "Save", attrs...)
	err := s.inner.Save(ctx, st)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// Path implements state.Store.
func (s *InstrumentedStore) Path() string {
	return s.inner.Path()
}

func stateAttrs(st *types.WorkflowState) []attribute.KeyValue {
	if st == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("conductor.workflow", st.Workflow),
		attribute.String("conductor.current", st.Current),
	}
}
