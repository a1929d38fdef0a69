// Package eventlog handles the append-only event log of stage transitions.
// The events.jsonl file holds one JSON object per line; records are never
// rewritten, only appended.
package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/steveyegge/conductor/internal/types"
)

// FileName is the default event log name inside the state directory.
const FileName = "events.jsonl"

// Sink receives telemetry events emitted after a state change is committed.
type Sink interface {
	Emit(ctx context.Context, ev *types.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev *types.Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, ev *types.Event) error {
	return f(ctx, ev)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(context.Context, *types.Event) error { return nil })

// Multi fans an event out to every sink. All sinks are called even when some
// fail; the failures are joined.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, ev *types.Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log appends events to a JSONL file.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// DefaultPath returns the default path for the event log.
// dir is typically .conductor/
func DefaultPath(dir string) string {
	return filepath.Join(dir, FileName)
}

// Path returns the log location.
func (l *Log) Path() string {
	return l.path
}

// Emit appends ev as one line. Creates the file if it doesn't exist.
func (l *Log) Emit(_ context.Context, ev *types.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 - controlled path
	if err != nil {
		return fmt.Errorf("failed to open event log for append: %w", err)
	}
	defer f.Close()

	// A single write keeps concurrent appenders from interleaving a line.
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Filter narrows the events returned by Read.
type Filter struct {
	Since time.Time       // only events at or after Since
	Type  types.EventType // only events of this type
	Limit int             // keep only the last Limit events (0 = all)
}

// ReadResult contains the result of reading the event log.
type ReadResult struct {
	Events   []*types.Event
	Skipped  int
	Warnings []string
}

// Read loads the event log, applying the filter. Corrupt lines are skipped
// and reported as warnings rather than failing the read.
func Read(path string, filter Filter) (*ReadResult, error) {
	result := &ReadResult{}
	f, err := os.Open(path) // #nosec G304 - controlled path from caller
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Allow large lines (up to 1MB) in case of very long reasons
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev types.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping corrupt line %d in event log: %v", lineNo, err))
			continue
		}
		if ev.Type == "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipping line %d in event log: missing type", lineNo))
			continue
		}
		if !filter.Since.IsZero() && ev.Timestamp.Before(filter.Since) {
			continue
		}
		if filter.Type != "" && ev.Type != filter.Type {
			continue
		}
		result.Events = append(result.Events, &ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading event log: %w", err)
	}

	if filter.Limit > 0 && len(result.Events) > filter.Limit {
		result.Events = result.Events[len(result.Events)-filter.Limit:]
	}
	return result, nil
}
