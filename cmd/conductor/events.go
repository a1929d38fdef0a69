package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/conductor/internal/config"
	"github.com/steveyegge/conductor/internal/eventlog"
	"github.com/steveyegge/conductor/internal/timeparsing"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/ui"
)

func newEventsCmd(cli *cliContext) *cobra.Command {
	var (
		since     string
		limit     int
		eventType string
	)
	cmd := &cobra.Command{
		Use:     "events",
		GroupID: GroupViews,
		Short:   "Show the stage event log",
		Example: `  conductor events --since "2 hours ago"
  conductor events --since 1d --type fatal
  conductor events --limit 20 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cli.resolveStateDir(false)
			if err != nil {
				return err
			}
			filter := eventlog.Filter{Limit: limit, Type: types.EventType(eventType)}
			if since != "" {
				now := time.Now()
				if cli.now != nil {
					now = cli.now()
				}
				if filter.Since, err = timeparsing.ParseSince(since, now); err != nil {
					return err
				}
			}

			res, err := eventlog.Read(config.EventsFile(dir), filter)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cli.errOut, "Warning: %s\n", w)
			}
			if cli.jsonOutput {
				events := res.Events
				if events == nil {
					events = []*types.Event{}
				}
				return outputJSON(cli.out, events)
			}
			if len(res.Events) == 0 {
				if !cli.quiet {
					fmt.Fprintln(cli.out, ui.RenderMuted("No events."))
				}
				return nil
			}
			for _, ev := range res.Events {
				renderEvent(cli.out, ev)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only events after this time (2h, 1d, yesterday, 2025-01-15, RFC3339)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N events")
	cmd.Flags().StringVar(&eventType, "type", "", "Only events of this type (stage-complete, stage-retry, fatal)")
	return cmd
}

func renderEvent(w io.Writer, ev *types.Event) {
	var detail string
	switch ev.Type {
	case types.EventStageComplete:
		detail = ui.RenderPassIcon() + " " + ui.RenderVerdict(ev.Verdict)
	case types.EventStageRetry:
		counter, count := ev.Counter, ev.Count
		if counter == "" {
			counter, count = types.CounterFail, ev.FailCount
		}
		detail = ui.RenderWarnIcon() + fmt.Sprintf(" retry (%s count %d)", counter, count)
	case types.EventFatal:
		detail = ui.RenderFailIcon() + " " + ui.RenderFail(ui.FirstLine(ev.Reason))
	default:
		detail = string(ev.Type)
	}
	fmt.Fprintf(w, "%s  %-10s %s\n", ui.RenderMuted(formatTime(ev.Timestamp)), ev.Stage, detail)
}
