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
	"encoding/json"
	"fmt"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
)

// Phase records the Reactive Loop phase a checkpoint was taken in.
type Phase string

const (
	PhasePreLLM       Phase = "pre_llm"
	PhasePostLLM      Phase = "post_llm"
	PhaseStepComplete Phase = "step_complete"
	PhaseError        Phase = "error"
)

// Type records why a checkpoint was created.
type Type string

const (
	TypeEvent    Type = "event"
	TypeInterval Type = "interval"
	TypeManual   Type = "manual"
	TypeError    Type = "error"
)

// State is a persisted snapshot of a task.Execution, sufficient to resume
// the Reactive Loop from the last completed Step rather than from task
// start. Unlike pkg/trajectory's Record (an immutable append-only audit
// trail), State is the mutable latest-known-good snapshot for one
// execution and is overwritten in place on every save.
type State struct {
	ExecutionID string    `json:"execution_id"`
	TaskID      string    `json:"task_id"`
	Prompt      string    `json:"prompt"`
	WorkingDir  string    `json:"working_dir"`

	Steps    []task.Step    `json:"steps,omitempty"`
	Messages []task.Message `json:"messages,omitempty"`
	Usage    task.Usage     `json:"usage"`

	Phase          Phase     `json:"phase"`
	CheckpointType Type      `json:"checkpoint_type"`
	CheckpointTime time.Time `json:"checkpoint_time"`

	Error string `json:"error,omitempty"`
}

// Serialize converts s to JSON bytes.
func (s *State) Serialize() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("checkpoint: cannot serialize nil state")
	}
	return json.Marshal(s)
}

// Deserialize reconstructs a State from JSON bytes.
func Deserialize(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("checkpoint: cannot deserialize empty data")
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal state: %w", err)
	}
	return &s, nil
}

// Snapshot captures exec's resumable fields into a new State tagged with
// phase and checkpointType.
func Snapshot(exec *task.Execution, phase Phase, checkpointType Type) *State {
	return &State{
		ExecutionID:    exec.ID,
		TaskID:         exec.Task.ID,
		Prompt:         exec.Task.Prompt,
		WorkingDir:     exec.Task.WorkingDir,
		Steps:          append([]task.Step(nil), exec.Steps...),
		Messages:       append([]task.Message(nil), exec.Messages...),
		Usage:          exec.Usage,
		Phase:          phase,
		CheckpointType: checkpointType,
		CheckpointTime: time.Now(),
	}
}

// SnapshotError captures exec as an error checkpoint.
func SnapshotError(exec *task.Execution, cause error) *State {
	s := Snapshot(exec, PhaseError, TypeError)
	if cause != nil {
		s.Error = cause.Error()
	}
	return s
}

// Resume rebuilds a task.Execution from this checkpoint: a fresh
// Execution is created for the original Task (so it gets a new ID and
// StartedAt, distinguishing the resumed run in the trajectory log from
// the one that was interrupted), then the saved Steps/Messages/Usage
// overwrite the seed values NewExecution assigns, so the loop sees
// exactly the conversation state it had at the last checkpoint.
func (s *State) Resume(systemPrompt string) *task.Execution {
	t := task.Task{ID: s.TaskID, Prompt: s.Prompt, WorkingDir: s.WorkingDir}
	exec := task.NewExecution(t, systemPrompt)
	exec.Steps = append([]task.Step(nil), s.Steps...)
	exec.Messages = append([]task.Message(nil), s.Messages...)
	exec.Usage = s.Usage
	return exec
}

// IsExpired reports whether s is older than timeout.
func (s *State) IsExpired(timeout time.Duration) bool {
	if s.CheckpointTime.IsZero() || timeout <= 0 {
		return false
	}
	return time.Since(s.CheckpointTime) > timeout
}
