// Package hooks runs user scripts in .conductor/hooks/ when the transition
// controller emits a stage event.
//
// A hook receives the event as JSON on stdin and is invoked as
//
//	<hook> <stage> <event-type>
//
// with CONDUCTOR_EVENT, CONDUCTOR_STAGE, CONDUCTOR_WORKFLOW and
// CONDUCTOR_INSTANCE_ID in its environment.
package hooks

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/conductor/internal/types"
)

// Hook file names
const (
	HookOnStageComplete = "on_stage_complete"
	HookOnStageRetry    = "on_stage_retry"
	HookOnFatal         = "on_fatal"
)

// DefaultTimeout bounds one hook run.
const DefaultTimeout = 10 * time.Second

// maxOutputBytes caps hook output kept for error messages and span events.
const maxOutputBytes = 4096

// Runner handles hook execution. It satisfies eventlog.Sink.
type Runner struct {
	hooksDir string
	timeout  time.Duration
}

// NewRunner creates a new hook runner.
// hooksDir is typically .conductor/hooks/.
func NewRunner(hooksDir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{hooksDir: hooksDir, timeout: timeout}
}

// Dir returns the hook directory.
func (r *Runner) Dir() string {
	return r.hooksDir
}

// Emit runs the hook for ev synchronously. A missing or non-executable hook
// is skipped silently; a failing or timed-out hook returns an error.
func (r *Runner) Emit(ctx context.Context, ev *types.Event) error {
	hookPath, ok := r.lookup(ev.Type)
	if !ok {
		return nil
	}
	return r.runHook(ctx, hookPath, ev)
}

// HookExists checks if an executable hook exists for an event type.
func (r *Runner) HookExists(eventType types.EventType) bool {
	_, ok := r.lookup(eventType)
	return ok
}

func (r *Runner) lookup(eventType types.EventType) (string, bool) {
	name := eventToHook(eventType)
	if name == "" || r.hooksDir == "" {
		return "", false
	}
	hookPath := filepath.Join(r.hooksDir, name)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() {
		return "", false
	}
	if info.Mode()&0111 == 0 {
		return "", false
	}
	return hookPath, true
}

func eventToHook(eventType types.EventType) string {
	switch eventType {
	case types.EventStageComplete:
		return HookOnStageComplete
	case types.EventStageRetry:
		return HookOnStageRetry
	case types.EventFatal:
		return HookOnFatal
	default:
		return ""
	}
}

func hookEnv(ev *types.Event) []string {
	return append(os.Environ(),
		"CONDUCTOR_EVENT="+string(ev.Type),
		"CONDUCTOR_STAGE="+ev.Stage,
		"CONDUCTOR_WORKFLOW="+ev.Workflow,
		"CONDUCTOR_INSTANCE_ID="+ev.InstanceID,
	)
}
