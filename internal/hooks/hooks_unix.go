//go:build unix

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/steveyegge/conductor/internal/types"
)

// runHook executes the hook and enforces a timeout, killing the process group
// on expiration so descendant processes are terminated too.
func (r *Runner) runHook(parent context.Context, hookPath string, ev *types.Event) (retErr error) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	ctx, span := startHookSpan(ctx, hookPath, ev)
	defer func() { endHookSpan(span, retErr) }()

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// #nosec G204 -- hookPath is from the controlled .conductor/hooks directory
	cmd := exec.Command(hookPath, ev.Stage, string(ev.Type))
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = hookEnv(ev)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Scripts may background children; only a group kill reaches them.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("kill process group: %w", err)
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
