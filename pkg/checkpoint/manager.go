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
	"log/slog"

	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/task"
)

// Manager orchestrates checkpoint creation and recovery, wrapping a
// Storage with the policy decisions from Config. bus, if non-nil, is
// published to on save failures, mirroring pkg/trajectory.Writer's
// failure-is-an-event-not-an-error convention — a checkpoint write must
// never fail a running Step.
type Manager struct {
	cfg     *Config
	storage *Storage
	bus     *eventbus.Bus
}

// NewManager builds a Manager. cfg is defaulted in place if not already.
func NewManager(cfg *Config, storage *Storage, bus *eventbus.Bus) *Manager {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()
	return &Manager{cfg: cfg, storage: storage, bus: bus}
}

func (m *Manager) IsEnabled() bool { return m.cfg.IsEnabled() }

func (m *Manager) Config() *Config { return m.cfg }

// Save persists state if checkpointing is enabled; disabled checkpointing
// is a silent no-op, not an error, so callers can call Save unconditionally.
func (m *Manager) Save(ctx context.Context, state *State) error {
	if !m.IsEnabled() {
		return nil
	}
	if err := m.storage.Save(ctx, state); err != nil {
		if m.bus != nil {
			m.bus.Publish(eventbus.Event{Kind: "checkpoint_save_failed", Data: map[string]any{
				"execution_id": state.ExecutionID, "error": err.Error(),
			}})
		}
		slog.Warn("checkpoint: save failed", "execution_id", state.ExecutionID, "error", err)
		return err
	}
	return nil
}

// Load retrieves a checkpoint, rejecting it if older than the configured
// recovery timeout.
func (m *Manager) Load(ctx context.Context, executionID string) (*State, error) {
	state, err := m.storage.Load(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if state.IsExpired(m.cfg.RecoveryTimeout()) {
		return nil, &ExpiredError{ExecutionID: executionID}
	}
	return state, nil
}

// Clear removes a checkpoint, e.g. after a successful completion.
func (m *Manager) Clear(ctx context.Context, executionID string) error {
	return m.storage.Clear(ctx, executionID)
}

// ListPending returns every unexpired checkpoint on disk, for a startup
// recovery sweep.
func (m *Manager) ListPending(ctx context.Context) ([]*State, error) {
	all, err := m.storage.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	timeout := m.cfg.RecoveryTimeout()
	pending := make([]*State, 0, len(all))
	for _, s := range all {
		if !s.IsExpired(timeout) {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

func (m *Manager) ShouldCheckpointAtStep(step int) bool { return m.cfg.ShouldCheckpointAtStep(step) }
func (m *Manager) ShouldCheckpointAfterTools() bool     { return m.cfg.ShouldCheckpointAfterTools() }
func (m *Manager) ShouldCheckpointBeforeLLM() bool      { return m.cfg.ShouldCheckpointBeforeLLM() }
func (m *Manager) ShouldAutoResume() bool               { return m.cfg.ShouldAutoResume() }

// ExpiredError reports that a checkpoint exists but is past its recovery
// timeout.
type ExpiredError struct {
	ExecutionID string
}

func (e *ExpiredError) Error() string {
	return "checkpoint: execution " + e.ExecutionID + " checkpoint has expired"
}

// SaveStep is a convenience wrapper around Save for the common case of
// checkpointing a just-completed Step.
func (m *Manager) SaveStep(ctx context.Context, exec *task.Execution) error {
	if !m.IsEnabled() {
		return nil
	}
	step := len(exec.Steps)
	checkpointType := TypeEvent
	if m.ShouldCheckpointAtStep(step) {
		checkpointType = TypeInterval
	} else if !m.ShouldCheckpointAfterTools() {
		return nil
	}
	return m.Save(ctx, Snapshot(exec, PhaseStepComplete, checkpointType))
}
