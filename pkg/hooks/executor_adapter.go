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

package hooks

import (
	"context"

	"github.com/sagerun/sage-core/pkg/executor"
	"github.com/sagerun/sage-core/pkg/task"
)

// ExecutorAdapter wraps a Registry to satisfy executor.HookRunner, firing
// PhasePreToolUse/PhasePostToolUse and translating this package's richer
// Decision (which includes ModifyContext) down to the executor's simpler
// three-way Continue/Skip/Abort, folding a ModifyContext result back into
// the returned ToolCall/ToolResult rather than exposing FireContext to the
// executor.
type ExecutorAdapter struct {
	Registry    *Registry
	ExecutionID string
	Session     string
}

func (a ExecutorAdapter) PreToolUse(ctx context.Context, call task.ToolCall) (executor.Decision, task.ToolCall) {
	decision, fire, err := a.Registry.Fire(ctx, PhasePreToolUse, FireContext{
		ExecutionID: a.ExecutionID,
		Session:     a.Session,
		ToolCall:    &call,
	})
	if err != nil || decision == Abort {
		return executor.DecisionAbort, call
	}
	if decision == Skip {
		return executor.DecisionSkip, call
	}
	if fire.ToolCall != nil {
		call = *fire.ToolCall
	}
	return executor.DecisionContinue, call
}

func (a ExecutorAdapter) PostToolUse(ctx context.Context, call task.ToolCall, result task.ToolResult) (executor.Decision, task.ToolResult) {
	decision, fire, err := a.Registry.Fire(ctx, PhasePostToolUse, FireContext{
		ExecutionID: a.ExecutionID,
		Session:     a.Session,
		ToolCall:    &call,
		ToolResult:  &result,
	})
	if err != nil || decision == Abort {
		return executor.DecisionAbort, result
	}
	if fire.ToolResult != nil {
		result = *fire.ToolResult
	}
	return executor.DecisionContinue, result
}
