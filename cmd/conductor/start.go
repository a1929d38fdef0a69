package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/ui"
)

func newStartCmd(cli *cliContext) *cobra.Command {
	var stage, worker string
	cmd := &cobra.Command{
		Use:     "start",
		GroupID: GroupWorkflow,
		Short:   "Record a worker as active on a stage",
		Example: `  conductor start --stage REVIEW --worker reviewer-1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.openProject(false)
			if err != nil {
				return err
			}
			res, err := p.ctrl.Start(cli.ctx, worker, stage)
			if err != nil {
				return err
			}
			if cli.jsonOutput || res.NoOp {
				return cli.printResult(res)
			}
			if !cli.quiet {
				fmt.Fprintf(cli.out, "%s %s is active\n", ui.AccentStyle.Render(ui.IconActive), res.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "Base stage name (e.g. REVIEW)")
	cmd.Flags().StringVar(&worker, "worker", "", "Worker name (default: the stage's agent)")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}
