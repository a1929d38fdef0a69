package controller

import (
	"context"
	"fmt"

	"github.com/steveyegge/conductor/internal/hint"
	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/state"
	"github.com/steveyegge/conductor/internal/types"
)

// Init creates a new pipeline instance from the named template. An unfinished
// pipeline is only replaced when force is set.
func (c *Controller) Init(ctx context.Context, pipeline, spec string, force bool) (*Result, error) {
	existing, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.IsComplete() && !force {
		return nil, fmt.Errorf("%w: %s (current stage %s); use --force to replace it",
			ErrPipelineActive, existing.Workflow, existing.Current)
	}

	st, err := state.New(c.reg, pipeline, spec, c.now())
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, st); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("workflow", st.Workflow).Str("instance", st.InstanceID).Msg("pipeline initialized")
	return &Result{Key: st.Current, Hint: hint.Next(st, c.reg, ""), State: st}, nil
}

// Start records worker as active on the open attempt of base. Starting an
// escalated stage is refused until a human resumes it.
func (c *Controller) Start(ctx context.Context, worker, base string) (*Result, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return noop(nil, "no active pipeline"), nil
	}
	key := stagekey.Resolve(st, base)
	if key == "" {
		return noop(st, "no open attempt of %s", base), nil
	}
	rec := st.Stage(key)
	if rec.Escalated {
		return noop(st, "%s is escalated; run `conductor resume --stage %s` first", key, key), nil
	}
	if worker == "" {
		worker = c.reg.Agent(stagekey.Base(key))
	}
	if worker == "" {
		worker = key
	}

	now := c.now()
	rec.Status = types.StatusActive
	st.ActiveWorkers[worker] = &types.ActiveWorker{Stage: key, StartedAt: now}
	st.UpdatedAt = now
	if err := c.store.Save(ctx, st); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("key", key).Str("worker", worker).Msg("stage started")
	return &Result{Key: key, State: st}, nil
}

// Resume is the manual recovery after escalation: the named stage key goes
// back to pending with its escalation cleared, and the pointer targets it.
// Counters are left untouched. key must be a literal key of the state.
func (c *Controller) Resume(ctx context.Context, key string) (*Result, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoPipeline
	}
	rec, err := st.MustStage(key)
	if err != nil {
		return nil, err
	}

	rec.Escalated = false
	rec.Status = types.StatusPending
	for name, w := range st.ActiveWorkers {
		if w == nil || w.Stage == key {
			delete(st.ActiveWorkers, name)
		}
	}
	st.Current = key
	st.CompletedAt = nil
	st.UpdatedAt = c.now()
	if err := c.store.Save(ctx, st); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("key", key).Msg("stage resumed")
	return &Result{Key: key, Hint: hint.Next(st, c.reg, ""), State: st}, nil
}

// Hint returns the current recommendation without changing anything.
func (c *Controller) Hint(ctx context.Context) (*Result, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return noop(nil, "no active pipeline"), nil
	}
	res := &Result{Key: st.Current, State: st, Complete: st.IsComplete()}
	switch {
	case res.Complete:
		res.Hint = hint.Summary(st, c.reg)
	case hint.Blocked(st) != "":
		res.Hint = hint.Blocked(st)
	default:
		res.Hint = hint.Next(st, c.reg, "")
	}
	return res, nil
}

// Status loads the state for display. Returns ErrNoPipeline when there is none.
func (c *Controller) Status(ctx context.Context) (*types.WorkflowState, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoPipeline
	}
	return st, nil
}

// Identify returns the base stage a worker belongs to, judged from its agent
// type and task description against the bases that still have an open
// attempt. Returns "" when nothing matches or there is no pipeline.
func (c *Controller) Identify(ctx context.Context, worker, agentType, description string) (string, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if st == nil {
		return "", nil
	}
	if w := st.ActiveWorkers[worker]; worker != "" && w != nil {
		return stagekey.Base(w.Stage), nil
	}
	return c.identify(st, worker, agentType, description), nil
}
