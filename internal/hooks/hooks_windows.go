//go:build windows

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/steveyegge/conductor/internal/types"
)

// runHook executes the hook and enforces a timeout on Windows.
// Windows lacks Unix-style process groups; on timeout we best-effort kill
// the started process. Descendants that detach may survive.
func (r *Runner) runHook(parent context.Context, hookPath string, ev *types.Event) (retErr error) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	ctx, span := startHookSpan(ctx, hookPath, ev)
	defer func() { endHookSpan(span, retErr) }()

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	cmd := exec.Command(hookPath, ev.Stage, string(ev.Type))
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = hookEnv(ev)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		addHookOutputEvents(span, &stdout, &stderr)
		return fmt.Errorf("hook %s timed out after %s: %w", hookPath, r.timeout, ctx.Err())
	case err := <-done:
		addHookOutputEvents(span, &stdout, &stderr)
		if err != nil {
			return hookError(hookPath, err, &stderr)
		}
		return nil
	}
}
