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

// sentinelTaskDone is the tool name whose successful result satisfies the
// completion predicate's clause (i): a prior step recorded it.
const sentinelTaskDone = "task_done"

func hasTaskDoneResult(exec *task.Execution) bool {
	for _, step := range exec.Steps {
		for _, r := range step.ToolResults {
			if r.ToolName == sentinelTaskDone && r.Success {
				return true
			}
		}
	}
	return false
}

func hasFileMutatingToolRun(exec *task.Execution, mutating map[string]bool) bool {
	if len(mutating) == 0 {
		return false
	}
	for _, step := range exec.Steps {
		for _, tc := range step.ToolCalls {
			if mutating[tc.Name] {
				return true
			}
		}
	}
	return false
}
