// Copyright 2026 Sage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Storage persists checkpoint State to disk, one file per execution ID
// under dir. Grounded on pkg/trajectory.Writer's dir-based layout, but a
// checkpoint overwrites its file on every save rather than appending —
// State is the latest snapshot, not a log — so Save writes to a temp file
// and renames it into place, keeping a reader from ever observing a
// partially written checkpoint.
type Storage struct {
	mu  sync.Mutex
	dir string
}

// NewStorage returns a Storage rooted at dir, creating it if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir %s: %w", dir, err)
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) path(executionID string) string {
	return filepath.Join(s.dir, executionID+".json")
}

// Save persists state, replacing any prior checkpoint for the same
// execution.
func (s *Storage) Save(ctx context.Context, state *State) error {
	if state == nil {
		return fmt.Errorf("checkpoint: cannot save nil state")
	}
	if state.ExecutionID == "" {
		return fmt.Errorf("checkpoint: execution_id is required")
	}

	data, err := state.Serialize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, state.ExecutionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(state.ExecutionID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: rename into place: %w", err)
	}
	return nil
}

// Load retrieves the checkpoint for executionID.
func (s *Storage) Load(ctx context.Context, executionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint: no checkpoint found for execution %s", executionID)
		}
		return nil, fmt.Errorf("checkpoint: read %s: %w", executionID, err)
	}
	return Deserialize(data)
}

// Clear removes the checkpoint for executionID, if any.
func (s *Storage) Clear(ctx context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(executionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checkpoint: remove %s: %w", executionID, err)
	}
	return nil
}

// ListPending returns every checkpoint currently persisted under dir,
// sorted by CheckpointTime ascending (oldest first, matching the order a
// startup recovery sweep would want to process them in).
func (s *Storage) ListPending(ctx context.Context) ([]*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read dir %s: %w", s.dir, err)
	}

	var states []*State
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		state, err := Deserialize(data)
		if err != nil {
			continue
		}
		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool { return states[i].CheckpointTime.Before(states[j].CheckpointTime) })
	return states, nil
}
