package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/controller"
)

func newReportCmd(cli *cliContext) *cobra.Command {
	var stage, worker, text, file string
	cmd := &cobra.Command{
		Use:     "report",
		GroupID: GroupWorkflow,
		Short:   "Apply a worker's completion report and print the next action",
		Long: `Classifies the report into pass / fail / reject / issues, applies the retry
policy, detects parallel-group convergence, and prints the next recommended
action. The report text comes from --text, --file, or stdin.

When --stage is omitted the stage is taken from the worker's start record.`,
		Example: `  conductor report --stage TEST --text "All 42 tests passed"
  go test ./... 2>&1 | conductor report --stage TEST`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stage == "" && worker == "" {
				return errors.New("report needs --stage or --worker")
			}
			body, err := cli.readReportText(text, file)
			if err != nil {
				return err
			}
			p, err := cli.openProject(false)
			if err != nil {
				return err
			}
			res, err := p.ctrl.Report(cli.ctx, controller.Report{
				Worker: worker,
				Stage:  stage,
				Text:   body,
			})
			if err != nil {
				return err
			}
			return cli.printResult(res)
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Base stage name the report belongs to")
	cmd.Flags().StringVar(&worker, "worker", "", "Reporting worker name")
	cmd.Flags().StringVar(&text, "text", "", "Report text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the report text from a file")
	return cmd
}

// readReportText picks the report body: --text, then --file, then stdin when
// it is not a terminal.
func (c *cliContext) readReportText(text, file string) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(file) // #nosec G304 -- user-provided report file
		if err != nil {
			return "", fmt.Errorf("reading report file: %w", err)
		}
		return string(data), nil
	case c.in != nil && !c.interactive():
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("reading report from stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) != "" {
			return string(data), nil
		}
	}
	return "", errors.New("no report text: pass --text, --file, or pipe it on stdin")
}
