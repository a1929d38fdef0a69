package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/ui"
)

// pipelineJSON is the JSON shape of one template.
type pipelineJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stages      []string `json:"stages"`
	Source      string   `json:"source"`
}

func newPipelinesCmd(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:     "pipelines",
		Aliases: []string{"templates"},
		GroupID: GroupSetup,
		Short:   "List pipeline templates and parallel groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := cli.loadRegistry()
			if err != nil {
				return err
			}
			if cli.jsonOutput {
				out := struct {
					Pipelines []pipelineJSON    `json:"pipelines"`
					Groups    []*registry.Group `json:"groups"`
				}{Groups: reg.Groups()}
				for _, name := range reg.PipelineNames() {
					pl, _ := reg.Pipeline(name)
					out.Pipelines = append(out.Pipelines, pipelineJSON{
						Name: pl.Name, Description: pl.Description, Stages: pl.Stages, Source: pl.Source,
					})
				}
				return outputJSON(cli.out, out)
			}
			printPipelines(cli, reg)
			return nil
		},
	}
}

// loadRegistry loads the registry for the current project, or the builtin
// templates alone outside a project.
func (c *cliContext) loadRegistry() (*registry.Registry, error) {
	p, err := c.openProject(false)
	if err == nil {
		return p.reg, nil
	}
	if _, dirErr := c.resolveStateDir(false); dirErr == nil {
		return nil, err
	}
	return registry.Builtin()
}

func printPipelines(c *cliContext, reg *registry.Registry) {
	name := color.New(color.FgCyan, color.Bold).SprintFunc()
	grp := color.New(color.FgMagenta).SprintFunc()
	muted := color.New(color.FgHiBlack).SprintFunc()
	if c.out != stdoutWriter() {
		color.NoColor = true
	}

	for _, n := range reg.PipelineNames() {
		pl, _ := reg.Pipeline(n)
		fmt.Fprintf(c.out, "%s %s\n", name(pl.Name), muted("["+pl.Source+"]"))
		if pl.Description != "" {
			fmt.Fprintf(c.out, "  %s\n", ui.Wrap(pl.Description, 76))
		}
		var parts []string
		for _, e := range pl.Entries() {
			s := e.Base
			if icon := reg.Icon(e.Base); icon != "" && ui.ShouldUseEmoji() {
				s = icon + " " + s
			}
			if e.Mode != "" {
				s += "/" + e.Mode
			}
			if g := reg.GroupOf(e.Base); g != nil {
				s = grp(s)
			}
			parts = append(parts, s)
		}
		fmt.Fprintf(c.out, "  %s\n", strings.Join(parts, " → "))
	}

	if groups := reg.Groups(); len(groups) > 0 {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, ui.RenderCategory("Parallel groups"))
		for _, g := range groups {
			fmt.Fprintf(c.out, "  %s: %s\n", grp(g.Name), strings.Join(g.Members, ", "))
		}
	}
}
