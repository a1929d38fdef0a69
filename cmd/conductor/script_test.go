package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// TestScripts runs each testdata/*.txt file as a CLI session. The conductor
// command executes in-process against a fresh state directory per file.
func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	engine := &script.Engine{
		Cmds:  scripttest.DefaultCmds(),
		Conds: scripttest.DefaultConds(),
	}
	engine.Cmds["conductor"] = conductorScriptCmd()

	for _, file := range files {
		file := file
		name := strings.TrimSuffix(filepath.Base(file), ".txt")
		t.Run(name, func(t *testing.T) {
			workdir := filepath.Dir(setupProject(t))
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s, err := script.NewState(ctx, workdir, os.Environ())
			require.NoError(t, err)
			scripttest.Run(t, engine, s, file, bytes.NewReader(data))
		})
	}
}

func conductorScriptCmd() script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run a conductor subcommand in-process",
			Args:    "args...",
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			var out, errOut bytes.Buffer
			cli := &cliContext{
				in:              strings.NewReader(""),
				out:             &out,
				errOut:          &errOut,
				now:             func() time.Time { return testNow },
				stdinIsTerminal: func() bool { return false },
			}
			root := newRootCmd(cli)
			root.SetArgs(args)
			runErr := root.Execute()
			return func(*script.State) (string, string, error) {
				return out.String(), errOut.String(), runErr
			}, nil
		})
}
