package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/ui"
)

func newResumeCmd(cli *cliContext) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:     "resume",
		GroupID: GroupWorkflow,
		Short:   "Resume an escalated stage after manual intervention",
		Long: `Clears the escalation of a stage key, sets it back to pending, and points
the pipeline at it. Retry counters are kept: one more negative verdict on a
counter already at the threshold escalates again.`,
		Example: `  conductor resume --stage TEST:2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.openProject(false)
			if err != nil {
				return err
			}
			res, err := p.ctrl.Resume(cli.ctx, key)
			switch {
			case errors.Is(err, controller.ErrNoPipeline):
				return withHint(err, "Run 'conductor init <template>' to start one")
			case errors.Is(err, types.ErrUnknownStage):
				return withHint(err, "Run 'conductor status' to list the stage keys")
			case err != nil:
				return err
			}
			if cli.jsonOutput {
				return outputJSON(cli.out, toResultJSON(res))
			}
			if !cli.quiet {
				fmt.Fprintf(cli.out, "%s Resumed %s\n", ui.RenderPassIcon(), res.Key)
			}
			fmt.Fprintln(cli.out, cli.renderMarkdown(res.Hint))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "stage", "", "Stage key to resume (e.g. TEST or TEST:2)")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}
