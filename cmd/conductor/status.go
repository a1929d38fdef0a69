package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/retry"
	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/state"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/ui"
)

func newStatusCmd(cli *cliContext) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:     "status",
		GroupID: GroupViews,
		Short:   "Show the pipeline state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.openProject(false)
			if err != nil {
				return err
			}
			if watch {
				return cli.watchStatus(p)
			}
			return cli.showStatus(p)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-render whenever the state changes")
	return cmd
}

func (c *cliContext) showStatus(p *project) error {
	st, err := p.ctrl.Status(c.ctx)
	if errors.Is(err, controller.ErrNoPipeline) {
		return withHint(err, "Run 'conductor init <template>' to start one")
	}
	if err != nil {
		return err
	}
	if c.jsonOutput {
		return outputJSON(c.out, st)
	}
	renderStatus(c.out, st, p.reg)
	return nil
}

// renderStatus prints one line per stage key plus counters and workers.
func renderStatus(w io.Writer, st *types.WorkflowState, reg *registry.Registry) {
	header := fmt.Sprintf("Pipeline %s", ui.RenderAccent(st.Workflow))
	if st.Spec != "" {
		header += ui.RenderMuted(" (" + st.Spec + ")")
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("instance %s · started %s", st.InstanceID, formatTime(st.CreatedAt))))
	fmt.Fprintln(w, ui.RenderSeparator())

	workersByKey := map[string][]string{}
	for name, aw := range st.ActiveWorkers {
		if aw != nil {
			workersByKey[aw.Stage] = append(workersByKey[aw.Stage], name)
		}
	}

	for _, key := range st.Stages.Keys() {
		rec := st.Stages.Get(key)
		base := stagekey.Base(key)

		pointer := "  "
		if key == st.Current {
			pointer = ui.RenderAccent(ui.IconPointer) + " "
		}
		label := reg.Label(base)
		if rec.Mode != "" {
			label += ", " + rec.Mode
		}
		if g := reg.GroupOf(base); g != nil {
			label += ", " + g.Name
		}
		line := fmt.Sprintf("%s%s %-10s %s", pointer, ui.RenderStageIcon(rec), key, ui.RenderMuted("("+label+")"))
		if v := rec.LastVerdict(); v != "" {
			line += " " + ui.RenderVerdict(v)
		}
		if rec.Escalated {
			line += " " + ui.RenderFail("escalated")
		}
		if names := workersByKey[key]; len(names) > 0 {
			sort.Strings(names)
			line += " " + ui.RenderMuted("← "+ui.Truncate(strings.Join(names, ", "), 40))
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, ui.RenderSeparator())
	c := st.Counters
	fmt.Fprintf(w, "Counters: %s  %s  %s\n",
		ui.RenderCounter("fail", c.Fail, retry.Threshold),
		ui.RenderCounter("reject", c.Reject, retry.Threshold),
		ui.RenderCounter("issues", c.Issues, retry.Threshold))
	if st.IsComplete() {
		fmt.Fprintf(w, "%s Complete at %s\n", ui.RenderPassIcon(), formatCompleted(st.CompletedAt))
	}
}

func formatCompleted(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

// watchStatus re-renders on every change to the state document until the
// command context is cancelled (Ctrl+C).
func (c *cliContext) watchStatus(p *project) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }() // Best effort cleanup

	// Watch the directory: the document is replaced by rename, which would
	// drop a watch on the file itself.
	if err := watcher.Add(p.dir); err != nil {
		return fmt.Errorf("watching %s: %w", p.dir, err)
	}

	render := func() {
		if !c.jsonOutput && c.out == stdoutWriter() {
			fmt.Fprint(c.out, "\033[H\033[2J")
		}
		if err := c.showStatus(p); err != nil {
			fmt.Fprintf(c.errOut, "%v\n", err)
		}
		if !c.jsonOutput {
			fmt.Fprintln(c.errOut, ui.RenderMuted("\nWatching for changes... (Press Ctrl+C to exit)"))
		}
	}
	render()

	stateFile := filepath.Base(p.store.Path())
	if stateFile == "" || stateFile == "." {
		stateFile = state.FileName
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-c.ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != stateFile {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(200 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			render()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(c.errOut, "Watcher error: %v\n", err)
		}
	}
}
