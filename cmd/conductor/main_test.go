package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/types"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// setupProject points the CLI at a fresh state directory.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".conductor")
	t.Setenv("CONDUCTOR_DIR", dir)
	t.Setenv("CONDUCTOR_AGENT_MODE", "1")
	t.Setenv("CONDUCTOR_OTEL_ENABLED", "")
	t.Setenv("CONDUCTOR_JSON", "")
	t.Setenv("CONDUCTOR_PIPELINE_DEFAULT", "")
	t.Setenv("NO_COLOR", "1")
	return dir
}

// runCLI executes one conductor invocation with its own command tree.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cli := &cliContext{
		in:              strings.NewReader(stdin),
		out:             &out,
		errOut:          &errOut,
		now:             func() time.Time { return testNow },
		stdinIsTerminal: func() bool { return false },
	}
	root := newRootCmd(cli)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, errOut, err := runCLI(t, stdin, args...)
	require.NoError(t, err, "stderr: %s", errOut)
	return out
}

func TestInitReportCycle(t *testing.T) {
	dir := setupProject(t)

	out := mustRun(t, "", "init", "quick", "--spec", "PROJ-7")
	assert.Contains(t, out, "Initialized pipeline")
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "DEV")
	assert.FileExists(t, filepath.Join(dir, "state.json"))

	out = mustRun(t, "", "start", "--stage", "DEV", "--worker", "dev-1")
	assert.Contains(t, out, "DEV is active")

	out = mustRun(t, "", "report", "--stage", "DEV", "--text", "Implemented the parser")
	assert.Contains(t, out, "TEST")

	// Report text piped on stdin.
	out = mustRun(t, "3 tests failed\n", "report", "--stage", "TEST")
	assert.Contains(t, out, "fail count 1/3")

	out = mustRun(t, "", "hint")
	assert.Contains(t, out, "TEST")

	out = mustRun(t, "", "status", "--json")
	var st types.WorkflowState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "quick", st.Workflow)
	assert.Equal(t, "PROJ-7", st.Spec)
	assert.Equal(t, "TEST", st.Current)
	assert.Equal(t, 1, st.Counters.Fail)

	out = mustRun(t, "", "status")
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "DEV")

	out = mustRun(t, "", "report", "--stage", "TEST", "--text", "Tests: 42 passed, 0 failed")
	assert.Contains(t, out, "complete")

	out = mustRun(t, "", "events", "--json")
	var events []*types.Event
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 3)
	assert.Equal(t, types.EventStageComplete, events[0].Type)
	assert.Equal(t, "DEV", events[0].Stage)
	assert.Equal(t, types.EventStageRetry, events[1].Type)
	assert.Equal(t, 1, events[1].FailCount)
	assert.Equal(t, types.EventStageComplete, events[2].Type)

	out = mustRun(t, "", "events", "--type", "stage-retry", "--since", "1h")
	assert.Contains(t, out, "retry (fail count 1)")
	assert.NotContains(t, out, "DEV")

	out = mustRun(t, "", "events", "--limit", "1", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "TEST", events[0].Stage)
}

func TestReportJSON(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	out := mustRun(t, "", "report", "--json", "--stage", "DEV", "--text", "done <!-- verdict: {\"result\": \"pass\"} -->")
	var res resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "DEV", res.Key)
	assert.Equal(t, types.VerdictPass, res.Verdict)
	assert.Equal(t, "marker", res.Source)
	assert.NotEmpty(t, res.Hint)
	require.NotNil(t, res.State)
	assert.Equal(t, "TEST", res.State.Current)
}

func TestReportNeedsText(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	_, _, err := runCLI(t, "", "report", "--stage", "DEV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report text")

	_, _, err = runCLI(t, "", "report", "--text", "done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--stage or --worker")
}

func TestReportFromFile(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(path, []byte("Implementation complete."), 0o600))
	out := mustRun(t, "", "report", "--stage", "DEV", "-f", path)
	assert.Contains(t, out, "TEST")
}

func TestReportWithoutMatchingStageIsNoOp(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	out, errOut, err := runCLI(t, "", "report", "--stage", "RETRO", "--text", "done")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No change")
}

func TestInitRefusesActivePipeline(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	_, _, err := runCLI(t, "", "init", "bugfix")
	require.Error(t, err)
	assert.True(t, errors.Is(err, controller.ErrPipelineActive))
	assert.Equal(t, "pipeline_active", errorCode(err))
	var hinted *hintedError
	require.True(t, errors.As(err, &hinted))
	assert.Contains(t, hinted.hint, "--force")

	out := mustRun(t, "", "init", "bugfix", "--force")
	assert.Contains(t, out, "bugfix")
}

func TestInitWithoutTemplate(t *testing.T) {
	setupProject(t)

	_, _, err := runCLI(t, "", "init")
	require.Error(t, err)
	var hinted *hintedError
	require.True(t, errors.As(err, &hinted))
	assert.Contains(t, hinted.hint, "conductor pipelines")

	t.Setenv("CONDUCTOR_PIPELINE_DEFAULT", "review-only")
	out := mustRun(t, "", "init")
	assert.Contains(t, out, "review-only")
}

func TestInitUnknownTemplate(t *testing.T) {
	setupProject(t)

	_, _, err := runCLI(t, "", "init", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnknownPipeline))
	assert.Equal(t, "unknown_pipeline", errorCode(err))
}

func TestStatusWithoutPipeline(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "config") // no state.json yet

	_, _, err := runCLI(t, "", "status")
	require.Error(t, err)
	assert.True(t, errors.Is(err, controller.ErrNoPipeline))
	assert.Equal(t, "no_pipeline", errorCode(err))
}

func TestHintWithoutPipeline(t *testing.T) {
	setupProject(t)

	out, errOut, err := runCLI(t, "", "hint")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "no active pipeline")
}

func TestResume(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")
	mustRun(t, "", "report", "--stage", "DEV", "--text", "done")
	for i := 0; i < 3; i++ {
		mustRun(t, "", "report", "--stage", "TEST", "--text", "2 tests failed")
	}

	out := mustRun(t, "", "hint")
	assert.Contains(t, out, "HUMAN INTERVENTION REQUIRED")

	out, errOut, err := runCLI(t, "", "start", "--stage", "TEST")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No change")

	_, _, err = runCLI(t, "", "resume", "--stage", "TEST:9")
	require.Error(t, err)
	assert.Equal(t, "unknown_stage", errorCode(err))

	out = mustRun(t, "", "resume", "--stage", "TEST")
	assert.Contains(t, out, "Resumed TEST")

	out = mustRun(t, "", "status", "--json")
	var st types.WorkflowState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.False(t, st.Stages.Get("TEST").Escalated)
	assert.Equal(t, 3, st.Counters.Fail, "resume keeps counters")
}

func TestHookSubagentLifecycle(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")
	mustRun(t, "", "report", "--stage", "DEV", "--text", "done")

	start := `{"hook_event_name":"SubagentStart","agent_id":"agent-42","agent_type":"tester","description":"run the suite"}`
	out := mustRun(t, start, "hook", "subagent-start")
	assert.Empty(t, out)

	stop := `{"hook_event_name":"SubagentStop","agent_id":"agent-42","last_assistant_message":"All 12 tests passed"}`
	out = mustRun(t, stop, "hook", "subagent-stop")
	var ho hookOutput
	require.NoError(t, json.Unmarshal([]byte(out), &ho))
	assert.Equal(t, "SubagentStop", ho.HookSpecificOutput.HookEventName)
	assert.Contains(t, ho.HookSpecificOutput.AdditionalContext, "complete")
}

func TestHookIgnoresUnrelatedEvents(t *testing.T) {
	setupProject(t)
	mustRun(t, "", "init", "quick")

	out := mustRun(t, "not json", "hook", "subagent-stop")
	assert.Empty(t, out)

	out = mustRun(t, `{"agent_type":"general-purpose","description":"look around"}`, "hook", "subagent-stop")
	assert.Empty(t, out)

	out = mustRun(t, `{"tool_input":{"subagent_type":"developer"},"tool_response":"done"}`, "hook", "subagent-stop")
	assert.Contains(t, out, "TEST", "task tool events are plain text without an event name")
}

func TestPipelinesCommand(t *testing.T) {
	setupProject(t)

	out := mustRun(t, "", "pipelines")
	for _, name := range []string{"feature", "bugfix", "quick", "review-only", "verify"} {
		assert.Contains(t, out, name)
	}

	out = mustRun(t, "", "pipelines", "--json")
	var listing struct {
		Pipelines []pipelineJSON `json:"pipelines"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.NotEmpty(t, listing.Pipelines)
	assert.Equal(t, "builtin", listing.Pipelines[0].Source)
}

func TestConfigAndVersion(t *testing.T) {
	setupProject(t)
	t.Setenv("CONDUCTOR_HOOKS_TIMEOUT", "3s")

	out := mustRun(t, "", "config")
	assert.Contains(t, out, "hooks.timeout")
	assert.Contains(t, out, "3s")

	out = mustRun(t, "", "config", "get", "hooks.timeout")
	assert.Equal(t, "3s\n", out)

	_, _, err := runCLI(t, "", "config", "get", "nope")
	require.Error(t, err)

	out = mustRun(t, "", "version")
	assert.Contains(t, out, "conductor version "+Version)

	out = mustRun(t, "", "version", "--json")
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", ``, ""},
		{"string", `"all green"`, "all green"},
		{"content blocks", `{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`, "a\nb"},
		{"result field", `{"result":"done"}`, "done"},
		{"block list", `[{"type":"text","text":"x"}]`, "x"},
		{"number", `42`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(json.RawMessage(tt.raw)))
		})
	}
}

func TestHookInputIdentity(t *testing.T) {
	in := hookInput{ToolUseID: "toolu_1", ToolInput: &taskToolInput{SubagentType: "reviewer", Prompt: "review the diff"}}
	assert.Equal(t, "toolu_1", in.worker())
	assert.Equal(t, "reviewer", in.agentType())
	assert.Equal(t, "review the diff", in.description())

	in = hookInput{AgentType: "tester"}
	assert.Equal(t, "tester", in.worker())
}
