package hooks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/conductor/internal/types"
)

func startHookSpan(ctx context.Context, hookPath string, ev *types.Event) (context.Context, trace.Span) {
	tracer := otel.Tracer("github.com/steveyegge/conductor/hooks")
	return tracer.Start(ctx, "hook.exec",
		trace.WithAttributes(
			attribute.String("hook.event", string(ev.Type)),
			attribute.String("hook.path", hookPath),
			attribute.String("conductor.stage", ev.Stage),
		),
	)
}

func endHookSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// addHookOutputEvents adds stdout/stderr from a hook execution as span events.
// Each buffer is only recorded if non-empty; output is truncated to maxOutputBytes.
func addHookOutputEvents(span trace.Span, stdout, stderr *bytes.Buffer) {
	if n := stdout.Len(); n > 0 {
		span.AddEvent("hook.stdout", trace.WithAttributes(
			attribute.String("output", truncateOutput(stdout.String())),
			attribute.Int("bytes", n),
		))
	}
	if n := stderr.Len(); n > 0 {
		span.AddEvent("hook.stderr", trace.WithAttributes(
			attribute.String("output", truncateOutput(stderr.String())),
			attribute.Int("bytes", n),
		))
	}
}

func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "...(truncated)"
}

// hookError wraps a hook failure with the tail of its stderr.
func hookError(hookPath string, err error, stderr *bytes.Buffer) error {
	msg := strings.TrimSpace(truncateOutput(stderr.String()))
	if msg == "" {
		return fmt.Errorf("hook %s: %w", hookPath, err)
	}
	return fmt.Errorf("hook %s: %w: %s", hookPath, err, msg)
}
