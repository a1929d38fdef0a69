package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/config"
	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/ui"
)

func newInitCmd(cli *cliContext) *cobra.Command {
	var (
		spec  string
		force bool
	)
	cmd := &cobra.Command{
		Use:     "init [template]",
		GroupID: GroupSetup,
		Short:   "Start a pipeline instance from a registry template",
		Long: `Creates the state document from a pipeline template. Without a template
argument the configured pipeline.default is used, or an interactive picker when
stdin is a terminal.

An unfinished pipeline is never replaced unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.openProject(true)
			if err != nil {
				return err
			}

			name := config.DefaultPipeline()
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				if cli.jsonOutput || !cli.interactive() {
					return withHint(errors.New("no pipeline template given"),
						"Run 'conductor pipelines' to list templates, then 'conductor init <template>'")
				}
				if name, err = pickPipeline(p.reg); err != nil {
					return err
				}
			}

			res, err := p.ctrl.Init(cli.ctx, name, spec, force)
			if err != nil {
				if errors.Is(err, controller.ErrPipelineActive) {
					return withHint(err, "Finish it, or run 'conductor init "+name+" --force' to discard it")
				}
				return err
			}
			if cli.jsonOutput {
				return outputJSON(cli.out, toResultJSON(res))
			}
			if !cli.quiet {
				fmt.Fprintf(cli.out, "%s Initialized pipeline %s (%d stages, instance %s)\n",
					ui.RenderPassIcon(), ui.RenderAccent(res.State.Workflow), res.State.Stages.Len(), res.State.InstanceID)
			}
			fmt.Fprintln(cli.out, cli.renderMarkdown(res.Hint))
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "Identifier of the spec/ticket this pipeline implements")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an unfinished pipeline")
	return cmd
}

func (c *cliContext) interactive() bool {
	if c.stdinIsTerminal != nil {
		return c.stdinIsTerminal()
	}
	return ui.IsStdinTerminal()
}

// pickPipeline shows an interactive template picker.
func pickPipeline(reg *registry.Registry) (string, error) {
	var options []huh.Option[string]
	for _, name := range reg.PipelineNames() {
		pl, _ := reg.Pipeline(name)
		label := name
		if pl != nil && pl.Description != "" {
			label = fmt.Sprintf("%s - %s", name, pl.Description)
		}
		options = append(options, huh.NewOption(label, name))
	}

	var name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pipeline template").
				Description("Stages run in this order; grouped stages run in parallel").
				Options(options...).
				Value(&name),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errors.New("pipeline selection cancelled")
		}
		return "", fmt.Errorf("form error: %w", err)
	}
	return name, nil
}
