package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/conductor/internal/config"
	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/eventlog"
	"github.com/steveyegge/conductor/internal/hooks"
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/state"
	"github.com/steveyegge/conductor/internal/telemetry"
	"github.com/steveyegge/conductor/internal/utils"
)

// cliContext carries flag values and process plumbing for one invocation.
type cliContext struct {
	jsonOutput bool
	verbose    bool
	quiet      bool
	stateDir   string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	// now is the controller clock; nil means time.Now.
	now func() time.Time
	// stdinIsTerminal reports whether interactive prompts are possible.
	stdinIsTerminal func() bool
}

func newCLIContext() *cliContext {
	return &cliContext{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		ctx:    context.Background(),
	}
}

// project is everything a command needs to act on the state directory.
type project struct {
	dir   string // the .conductor directory
	root  string // its parent, the project root
	reg   *registry.Registry
	store state.Store
	log   *eventlog.Log // nil when the event log is disabled
	hooks *hooks.Runner
	ctrl  *controller.Controller
}

// resolveStateDir finds the state directory. With create set, a missing
// directory is created under the working directory.
func (c *cliContext) resolveStateDir(create bool) (string, error) {
	if c.stateDir != "" {
		dir := utils.CanonicalizePath(c.stateDir)
		if create {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return "", fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir, err := utils.FindConductorDir(cwd)
	if err == nil {
		return dir, nil
	}
	if !errors.Is(err, utils.ErrNoProject) || !create {
		return "", &hintedError{err: err, hint: "Run 'conductor init <template>' in your project root"}
	}
	dir = filepath.Join(cwd, utils.DirName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", utils.DirName, err)
	}
	return dir, nil
}

// openProject loads the registry, state store, and sinks, and wires the
// transition controller.
func (c *cliContext) openProject(create bool) (*project, error) {
	dir, err := c.resolveStateDir(create)
	if err != nil {
		return nil, err
	}
	p := &project{dir: dir, root: filepath.Dir(dir)}

	patterns := append(registry.DefaultPatterns(), config.PipelinePaths()...)
	p.reg, err = registry.NewParser(p.root, patterns...).Load()
	if err != nil {
		return nil, fmt.Errorf("loading pipeline registry: %w", err)
	}

	p.store = telemetry.WrapStore(state.NewFileStore(dir))

	sinks := eventlog.Multi{}
	if config.EventsEnabled() {
		p.log = eventlog.New(config.EventsFile(dir))
		sinks = append(sinks, p.log)
	}
	p.hooks = hooks.NewRunner(config.HooksDir(dir), config.HooksTimeout())
	sinks = append(sinks, p.hooks, telemetry.NewEventSink())

	p.ctrl = controller.New(p.store, p.reg, controller.Config{
		Sink: sinks,
		Now:  c.now,
	})
	return p, nil
}
