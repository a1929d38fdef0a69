// Package state persists the workflow state document.
//
// The document is small and replaced whole on every write: encode in memory,
// write to a temp file in the same directory, rename over the old file.
// Overlapping invocations therefore never observe a torn document; the
// last writer wins.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/conductor/internal/debug"
	"github.com/steveyegge/conductor/internal/registry"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/utils"
)

// FileName is the state document name inside the state directory.
const FileName = "state.json"

// Store loads and saves the workflow state document.
type Store interface {
	// Load returns the current state, or (nil, nil) when there is no active
	// pipeline. A corrupted document also reads as no active pipeline.
	Load(ctx context.Context) (*types.WorkflowState, error)
	// Save atomically replaces the whole document.
	Save(ctx context.Context, st *types.WorkflowState) error
	// Path returns the document location.
	Path() string
}

// ErrCorrupted marks a state document that exists but cannot be used.
var ErrCorrupted = errors.New("state document is corrupted")

// FileStore is the Store backed by a JSON file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store for dir/state.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (*types.WorkflowState, error) {
	st, err := s.LoadStrict(ctx)
	if errors.Is(err, ErrCorrupted) {
		debug.Warnf("ignoring %s: %v", s.path, err)
		return nil, nil
	}
	return st, err
}

// LoadStrict is Load without the corruption fallback: a document that fails
// to decode or validate returns an error wrapping ErrCorrupted.
func (s *FileStore) LoadStrict(_ context.Context) (*types.WorkflowState, error) {
	// #nosec G304 -- path is the configured state document
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorrupted)
	}
	var st types.WorkflowState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if st.ActiveWorkers == nil {
		st.ActiveWorkers = make(map[string]*types.ActiveWorker)
	}
	return &st, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, st *types.WorkflowState) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid state: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	debug.Logf("state: saved %s (current=%q)", s.path, st.Current)
	return nil
}

// Remove deletes the state document. Missing documents are not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

// New builds a fresh state for the named template: every stage pending,
// counters zero, pointer on the first key.
func New(reg *registry.Registry, pipeline, spec string, now time.Time) (*types.WorkflowState, error) {
	p, err := reg.Pipeline(pipeline)
	if err != nil {
		return nil, err
	}
	stages := types.NewStageMap()
	for _, e := range p.Entries() {
		stages.Set(e.Key, &types.StageRecord{Status: types.StatusPending, Mode: e.Mode})
	}
	if stages.Len() == 0 {
		return nil, fmt.Errorf("pipeline %q has no stages", pipeline)
	}
	now = now.UTC()
	return &types.WorkflowState{
		InstanceID:    uuid.NewString(),
		Workflow:      p.Name,
		Stages:        stages,
		Current:       stages.Keys()[0],
		ActiveWorkers: make(map[string]*types.ActiveWorker),
		Spec:          spec,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
