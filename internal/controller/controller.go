// Package controller is the per-event orchestrator of the workflow engine.
//
// Each call loads the state document, makes one decision against it in
// memory, commits it with a single atomic write, and only then notifies the
// event sinks. Nothing is cached between calls: every decision is recomputed
// from freshly read state, so near-simultaneous reports from parallel workers
// are safe as long as each touches only its own stage and worker.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/steveyegge/conductor/internal/agents"
	"github.com/steveyegge/conductor/internal/convergence"
	"github.com/steveyegge/conductor/internal/debug"
	"github.com/steveyegge/conductor/internal/eventlog"
	"github.com/steveyegge/conductor/internal/hint"
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/retry"
	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/state"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/verdict"
)

var (
	// ErrNoPipeline is returned by operations that need an active pipeline.
	ErrNoPipeline = errors.New("no active pipeline")
	// ErrPipelineActive is returned by Init when an unfinished pipeline exists.
	ErrPipelineActive = errors.New("a pipeline is already in progress")
)

// Config holds the controller configuration.
type Config struct {
	// Sink receives stage-complete / stage-retry / fatal events after commit.
	Sink eventlog.Sink
	// Identifier maps a worker to its stage when a report names no stage.
	Identifier agents.Identifier
	// Now is the clock (default time.Now).
	Now func() time.Time
}

// Controller is the transition controller.
type Controller struct {
	store  state.Store
	reg    *registry.Registry
	config Config
	logger zerolog.Logger
}

// New creates a new Controller.
func New(store state.Store, reg *registry.Registry, config Config) *Controller {
	if config.Sink == nil {
		config.Sink = eventlog.Discard
	}
	if config.Identifier == nil {
		config.Identifier = agents.NewStandardIdentifier(reg)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Controller{
		store:  store,
		reg:    reg,
		config: config,
		logger: debug.Logger("controller"),
	}
}

// Registry returns the pipeline registry the controller decides against.
func (c *Controller) Registry() *registry.Registry {
	return c.reg
}

func (c *Controller) now() time.Time {
	return c.config.Now().UTC()
}

// Report is one worker-completion event.
type Report struct {
	Worker string // worker name; may be empty
	Stage  string // base stage name; when empty the Identifier is consulted
	Text   string // raw completion report

	// Identification inputs, used only when Stage is empty.
	AgentType   string
	Description string
}

// Result describes what a call decided.
type Result struct {
	// NoOp is set when the call changed nothing; Reason says why.
	NoOp   bool
	Reason string

	Key       string
	Verdict   types.Verdict
	Source    verdict.Source
	Outcome   retry.Outcome
	Converged string
	Complete  bool
	Hint      string
	State     *types.WorkflowState
}

func noop(st *types.WorkflowState, format string, args ...interface{}) *Result {
	return &Result{NoOp: true, Reason: fmt.Sprintf(format, args...), State: st}
}

// Report applies one completion report: resolve the stage attempt, classify
// the verdict, apply the retry policy, detect group convergence, move the
// pointer, commit, render the hint, and emit events. A report that matches
// no trackable stage is a no-op, not an error.
func (c *Controller) Report(ctx context.Context, r Report) (*Result, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return noop(nil, "no active pipeline"), nil
	}

	base := r.Stage
	if base == "" && r.Worker != "" {
		if w := st.ActiveWorkers[r.Worker]; w != nil {
			base = stagekey.Base(w.Stage)
		}
	}
	if base == "" {
		base = c.identify(st, r.Worker, r.AgentType, r.Description)
	}
	if base == "" {
		return noop(st, "worker %q matches no stage", r.Worker), nil
	}
	key := stagekey.Resolve(st, base)
	if key == "" {
		return noop(st, "no open attempt of %s", base), nil
	}
	base = stagekey.Base(key)
	rec := st.Stage(key)
	if rec.Escalated {
		return noop(st, "%s is escalated; run `conductor resume --stage %s` first", key, key), nil
	}

	// Classify.
	cls := verdict.Explain(r.Text, c.reg.Category(base))

	// Retry policy.
	out := retry.Apply(&st.Counters, cls.Verdict)
	rec.SetVerdict(cls.Verdict)
	rec.Attempts++
	rec.Status = out.Status()
	if out.Escalated() {
		rec.Escalated = true
	}
	c.releaseWorkers(st, key, r.Worker)

	// Convergence and pointer.
	res := &Result{Key: key, Verdict: cls.Verdict, Source: cls.Source, Outcome: out, State: st}
	if out.Kind == retry.KindCompleted {
		res.Converged = convergence.Detect(st, c.reg.GroupsContaining(base))
	}
	c.advance(st, key, out, res.Converged)
	res.Complete = st.Current == ""

	// Commit: one atomic replace of the whole document.
	st.UpdatedAt = c.now()
	if res.Complete && st.CompletedAt == nil {
		done := st.UpdatedAt
		st.CompletedAt = &done
	}
	if err := c.store.Save(ctx, st); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("key", key).
		Str("verdict", string(cls.Verdict)).
		Str("source", string(cls.Source)).
		Str("match", cls.Match).
		Str("outcome", string(out.Kind)).
		Str("converged", res.Converged).
		Str("current", st.Current).
		Msg("report applied")

	res.Hint = c.render(st, key, out, res.Complete)
	c.emit(ctx, st, key, out)
	return res, nil
}

// advance moves the current-stage pointer after key transitioned.
func (c *Controller) advance(st *types.WorkflowState, key string, out retry.Outcome, converged string) {
	switch {
	case converged != "":
		// Jump past the whole group, not to its next member.
		next := ""
		for _, g := range c.reg.GroupsContaining(stagekey.Base(key)) {
			if g.Name == converged {
				next = st.FirstOpen(convergence.LastIndex(st, g) + 1)
			}
		}
		if next == "" {
			next = st.FirstOpen(0)
		}
		st.Current = next
	case st.Current != "" && st.Stage(st.Current) != nil && st.Stage(st.Current).Status.IsOpen():
		// Pointer already targets an incomplete stage.
	case out.Kind != retry.KindCompleted:
		st.Current = key
	default:
		st.Current = st.FirstOpen(0)
	}
	if st.FirstOpen(0) == "" {
		st.Current = ""
	}
}

// releaseWorkers drops the reporting worker and anyone else tied to key:
// the attempt is over.
func (c *Controller) releaseWorkers(st *types.WorkflowState, key, worker string) {
	if worker != "" {
		delete(st.ActiveWorkers, worker)
	}
	for name, w := range st.ActiveWorkers {
		if w == nil || w.Stage == key {
			delete(st.ActiveWorkers, name)
		}
	}
}

func (c *Controller) render(st *types.WorkflowState, key string, out retry.Outcome, complete bool) string {
	switch {
	case complete:
		return hint.Summary(st, c.reg)
	case out.Escalated():
		return hint.Escalation(key, out)
	case out.DualFailure:
		return hint.DualFailure(c.reg, key, out)
	case out.Retrying():
		return hint.Retry(c.reg, key, out)
	}
	return hint.Next(st, c.reg, key)
}

// emit notifies the sinks. The state change is already committed; a sink
// failure is logged and never rolls it back.
func (c *Controller) emit(ctx context.Context, st *types.WorkflowState, key string, out retry.Outcome) {
	var ev *types.Event
	switch out.Kind {
	case retry.KindCompleted:
		ev = types.NewStageCompleteEvent(key, out.Verdict)
	case retry.KindRetry:
		ev = types.NewStageRetryEvent(key, st.Counters.Fail, out.Counter, out.Count)
	case retry.KindEscalated:
		ev = types.NewFatalEvent(key, out.Reason())
	default:
		return
	}
	ev.Timestamp = c.now()
	ev.InstanceID = st.InstanceID
	ev.Workflow = st.Workflow
	if err := c.config.Sink.Emit(ctx, ev); err != nil {
		debug.Warnf("event %s for %s not delivered: %v", ev.Type, key, err)
	}
}

// identify asks the Identifier for the base stage of a worker, restricted to
// bases that still have an open attempt.
func (c *Controller) identify(st *types.WorkflowState, worker, agentType, description string) string {
	var candidates []string
	seen := make(map[string]bool)
	for _, key := range st.Stages.Keys() {
		base := stagekey.Base(key)
		if seen[base] || !st.Stages.Get(key).Status.IsOpen() {
			continue
		}
		seen[base] = true
		candidates = append(candidates, base)
	}
	return c.config.Identifier.Identify(agents.Query{
		AgentType:   agentType,
		Name:        worker,
		Description: description,
	}, candidates)
}
