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

package observability

import (
	"context"

	"github.com/sagerun/sage-core/pkg/hooks"
)

// Hook builds a hooks.Hook that records tool-call, step, and error
// metrics on m, so wiring observability into a Loop/Executor is a single
// registry.Register(observability.Hook(m)) call rather than hand-writing a
// FuncHook per caller.
func Hook(m *Metrics) hooks.Hook {
	return hooks.FuncHook{
		HookName:   "observability",
		HookPhases: []hooks.Phase{hooks.PhasePostToolUse, hooks.PhaseStepComplete, hooks.PhaseError},
		Fn: func(ctx context.Context, fire hooks.FireContext) (hooks.Outcome, error) {
			switch fire.Phase {
			case hooks.PhasePostToolUse:
				if fire.ToolCall != nil && fire.ToolResult != nil {
					m.RecordToolCall(fire.ToolCall.Name, fire.ToolResult.Success, fire.ToolResult.Duration)
					if !fire.ToolResult.Success {
						m.RecordToolError(fire.ToolCall.Name, "failure")
					}
				}
			case hooks.PhaseStepComplete:
				m.RecordStep(string(fire.Phase), 0)
			case hooks.PhaseError:
				m.RecordExecution("error")
			}
			return hooks.Outcome{Decision: hooks.Continue}, nil
		},
	}
}
