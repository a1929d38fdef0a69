package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/debug"
)

// hookInput is the subset of a coding-agent hook event conductor reads.
// Both the dedicated subagent events and the Task tool events carry enough
// to identify the worker.
type hookInput struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name"`
	AgentID       string          `json:"agent_id"`
	AgentType     string          `json:"agent_type"`
	Description   string          `json:"description"`
	ToolUseID     string          `json:"tool_use_id"`
	ToolInput     *taskToolInput  `json:"tool_input"`
	ToolResponse  json.RawMessage `json:"tool_response"`
	LastMessage   string          `json:"last_assistant_message"`
	Output        string          `json:"output"`
}

type taskToolInput struct {
	SubagentType string `json:"subagent_type"`
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
}

// worker returns the most specific worker identity the event carries.
func (h *hookInput) worker() string {
	for _, s := range []string{h.AgentID, h.ToolUseID} {
		if s != "" {
			return s
		}
	}
	return h.agentType()
}

func (h *hookInput) agentType() string {
	if h.AgentType != "" {
		return h.AgentType
	}
	if h.ToolInput != nil {
		return h.ToolInput.SubagentType
	}
	return ""
}

func (h *hookInput) description() string {
	if h.Description != "" {
		return h.Description
	}
	if h.ToolInput != nil {
		if h.ToolInput.Description != "" {
			return h.ToolInput.Description
		}
		return h.ToolInput.Prompt
	}
	return ""
}

// reportText extracts the worker's final output.
func (h *hookInput) reportText() string {
	if h.LastMessage != "" {
		return h.LastMessage
	}
	if h.Output != "" {
		return h.Output
	}
	return responseText(h.ToolResponse)
}

// responseText flattens a tool response: a plain string, an object with a
// content block list, or an object with a result/output string.
func responseText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Result string `json:"result"`
		Output string `json:"output"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		var parts []string
		for _, c := range obj.Content {
			if c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
		if obj.Result != "" {
			return obj.Result
		}
		if obj.Output != "" {
			return obj.Output
		}
	}
	var blocks []struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &blocks) == nil {
		var parts []string
		for _, b := range blocks {
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return string(raw)
}

// hookOutput is the structured stdout a hook returns to inject context into
// the orchestrating agent.
type hookOutput struct {
	HookSpecificOutput struct {
		HookEventName     string `json:"hookEventName"`
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

func newHookCmd(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hook",
		GroupID: GroupWorkflow,
		Short:   "Entry points for coding-agent hooks (event JSON on stdin)",
		Long: `Reads a hook event from stdin and maps it onto the pipeline:

  subagent-start   a worker was delegated: record it as active on its stage
  subagent-stop    a worker finished: apply its output as a completion report

The stage is identified from the worker's agent type and task description.
Events that match no open stage are ignored silently.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "subagent-start",
			Short: "Handle a worker start event",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.runHook(false)
			},
		},
		&cobra.Command{
			Use:   "subagent-stop",
			Short: "Handle a worker stop event",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.runHook(true)
			},
		},
	)
	return cmd
}

// runHook never fails the calling agent for a malformed or unrelated event;
// it only logs and returns nil.
func (c *cliContext) runHook(stop bool) error {
	raw, err := io.ReadAll(c.in)
	if err != nil {
		return fmt.Errorf("reading hook event: %w", err)
	}
	var in hookInput
	if err := json.Unmarshal(raw, &in); err != nil {
		debug.Warnf("ignoring malformed hook event: %v", err)
		return nil
	}

	p, err := c.openProject(false)
	if err != nil {
		debug.Logf("hook: %v", err)
		return nil
	}

	base, err := p.ctrl.Identify(c.ctx, in.worker(), in.agentType(), in.description())
	if err != nil {
		return err
	}
	if base == "" {
		debug.Logf("hook: worker %q (%s) matches no open stage", in.worker(), in.agentType())
		return nil
	}

	var res *controller.Result
	if stop {
		res, err = p.ctrl.Report(c.ctx, controller.Report{
			Worker: in.worker(),
			Stage:  base,
			Text:   in.reportText(),
		})
	} else {
		res, err = p.ctrl.Start(c.ctx, in.worker(), base)
	}
	if err != nil {
		return err
	}
	if res.NoOp {
		debug.Logf("hook: %s", res.Reason)
		return nil
	}
	if c.jsonOutput {
		return outputJSON(c.out, toResultJSON(res))
	}
	if res.Hint == "" {
		return nil
	}
	if in.HookEventName == "" {
		fmt.Fprintln(c.out, res.Hint)
		return nil
	}
	var out hookOutput
	out.HookSpecificOutput.HookEventName = in.HookEventName
	out.HookSpecificOutput.AdditionalContext = res.Hint
	return outputJSON(c.out, out)
}
