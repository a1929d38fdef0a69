// Command conductor is the workflow stage orchestrator driven by coding-agent
// hooks: it tracks which pipeline stage is running, classifies each worker's
// completion report, and tells the orchestrating agent what to do next.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/config"
	"github.com/steveyegge/conductor/internal/debug"
	"github.com/steveyegge/conductor/internal/telemetry"
)

// Command groups for organized help output
const (
	GroupWorkflow = "workflow"
	GroupViews    = "views"
	GroupSetup    = "setup"
)

func newRootCmd(cli *cliContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "conductor",
		Short: "conductor - workflow stage orchestration for coding agents",
		Long: `Tracks a multi-stage development pipeline (plan, implement, review, test, retro)
across delegated worker agents. Each completion report is classified, retried or
escalated, and answered with the next recommended action.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Initialize(); err != nil {
				WarnError("failed to initialize config: %v", err)
			}
			cli.applyVerbosityFlags()
			cli.applyViperOverrides(cmd)
			if !cli.verbose {
				if err := debug.SetLevel(config.LogLevel()); err != nil {
					WarnError("%v", err)
				}
			}
			cli.setupSignalContext()
			if err := telemetry.Init(cli.ctx, "conductor", Version); err != nil {
				WarnError("%v", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			telemetry.Shutdown(ctx)
			if cli.cancel != nil {
				cli.cancel()
			}
		},
	}
	rootCmd.SetOut(cli.out)
	rootCmd.SetErr(cli.errOut)
	if cli.in != nil {
		rootCmd.SetIn(cli.in)
	}

	rootCmd.PersistentFlags().BoolVar(&cli.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&cli.quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().StringVar(&cli.stateDir, "state-dir", "", "State directory (default: nearest .conductor/ walking up)")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupWorkflow, Title: "Driving a pipeline:"},
		&cobra.Group{ID: GroupViews, Title: "Views & Reports:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup & Configuration:"},
	)
	rootCmd.AddCommand(
		newInitCmd(cli),
		newStartCmd(cli),
		newReportCmd(cli),
		newHookCmd(cli),
		newResumeCmd(cli),
		newHintCmd(cli),
		newStatusCmd(cli),
		newEventsCmd(cli),
		newPipelinesCmd(cli),
		newConfigCmd(cli),
		newVersionCmd(cli),
	)
	return rootCmd
}

func (c *cliContext) applyVerbosityFlags() {
	debug.SetVerbose(c.verbose)
	debug.SetQuiet(c.quiet)
}

// applyViperOverrides merges viper config values (from config file + env vars)
// into flags that weren't explicitly set on the command line.
// Priority: flags > viper (config file + env vars) > defaults.
func (c *cliContext) applyViperOverrides(cmd *cobra.Command) {
	if !cmd.Flags().Changed("json") {
		c.jsonOutput = config.GetBool(config.KeyJSON)
	}
	if !cmd.Flags().Changed("state-dir") && c.stateDir == "" {
		c.stateDir = config.StateDir()
	}
}

func (c *cliContext) setupSignalContext() {
	c.ctx, c.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	cli := newCLIContext()
	rootCmd := newRootCmd(cli)
	if err := rootCmd.Execute(); err != nil {
		var hinted *hintedError
		switch {
		case cli.jsonOutput:
			outputJSONError(err, errorCode(err))
		case errors.As(err, &hinted):
			FatalErrorWithHint(hinted.err.Error(), hinted.hint)
		default:
			FatalError("%v", err)
		}
	}
}
