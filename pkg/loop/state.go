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

package loop

import "github.com/sagerun/sage-core/pkg/task"

// State is one of the Reactive Loop's states, per spec §4.1.
type State int

const (
	StateInitializing State = iota
	StateThinking
	StateToolExecution
	StateCompleted
	StateError
	StateCancelled
	StateMaxStepsReached
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateThinking:
		return "thinking"
	case StateToolExecution:
		return "tool_execution"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	case StateCancelled:
		return "cancelled"
	case StateMaxStepsReached:
		return "max_steps_reached"
	default:
		return "unknown"
	}
}

// Outcome is the value Execute returns: the terminal State reached and the
// Execution it drove there. Named distinctly from task.Outcome (which is
// the coarser success/failed/cancelled/... tag stored on the Execution
// itself) since State also distinguishes MaxStepsReached from a plain
// Cancelled even though both may map to the same task.Outcome in places.
type Outcome struct {
	Execution *task.Execution
	State     State
}
