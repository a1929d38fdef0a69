package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/debug"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/ui"
)

// outputJSON outputs data as pretty-printed JSON.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// outputJSONError outputs an error as JSON to stderr and exits with code 1.
func outputJSONError(err error, code string) {
	errObj := map[string]string{"error": err.Error()}
	if code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj) // Best effort: if JSON encoding fails, error is already printed to stderr
	os.Exit(1)
}

// resultJSON is the JSON shape of a controller result.
type resultJSON struct {
	NoOp      bool                 `json:"noop,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	Key       string               `json:"key,omitempty"`
	Verdict   types.Verdict        `json:"verdict,omitempty"`
	Source    string               `json:"source,omitempty"`
	Outcome   string               `json:"outcome,omitempty"`
	Count     int                  `json:"count,omitempty"`
	Escalated bool                 `json:"escalated,omitempty"`
	Dual      bool                 `json:"dual_failure,omitempty"`
	Converged string               `json:"converged,omitempty"`
	Complete  bool                 `json:"complete,omitempty"`
	Hint      string               `json:"hint,omitempty"`
	State     *types.WorkflowState `json:"state,omitempty"`
}

func toResultJSON(res *controller.Result) resultJSON {
	out := resultJSON{
		NoOp:      res.NoOp,
		Reason:    res.Reason,
		Key:       res.Key,
		Verdict:   res.Verdict,
		Source:    string(res.Source),
		Outcome:   string(res.Outcome.Kind),
		Converged: res.Converged,
		Complete:  res.Complete,
		Hint:      res.Hint,
		State:     res.State,
	}
	if res.Outcome.Kind != "" {
		out.Count = res.Outcome.Count
		out.Escalated = res.Outcome.Escalated()
		out.Dual = res.Outcome.DualFailure
	}
	return out
}

// printResult renders a controller result: JSON, or the reason of a no-op on
// stderr, or the hint (markdown-rendered on a terminal) on stdout.
func (c *cliContext) printResult(res *controller.Result) error {
	if c.jsonOutput {
		return outputJSON(c.out, toResultJSON(res))
	}
	if res.NoOp {
		if !debug.IsQuiet() {
			fmt.Fprintf(c.errOut, "%s No change: %s\n", ui.RenderInfoIcon(), res.Reason)
		}
		return nil
	}
	if res.Hint != "" {
		fmt.Fprintln(c.out, c.renderMarkdown(res.Hint))
	}
	return nil
}

// renderMarkdown renders through glamour only when writing to the real
// terminal.
func (c *cliContext) renderMarkdown(s string) string {
	if c.out != stdoutWriter() {
		return s
	}
	return ui.RenderMarkdown(s)
}

func stdoutWriter() io.Writer {
	return os.Stdout
}

// formatTime renders timestamps in local time for humans.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
