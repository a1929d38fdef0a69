package main

import (
	"github.com/spf13/cobra"
)

func newHintCmd(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:     "hint",
		GroupID: GroupViews,
		Short:   "Print the next recommended action",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.openProject(false)
			if err != nil {
				return err
			}
			res, err := p.ctrl.Hint(cli.ctx)
			if err != nil {
				return err
			}
			return cli.printResult(res)
		},
	}
}
