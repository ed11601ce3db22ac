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

	"github.com/sagerun/sage-core/pkg/hooks"
	"github.com/sagerun/sage-core/pkg/task"
)

// Hook builds a hooks.Hook that checkpoints an Execution on
// PhaseStepComplete and PhaseError, using the *task.Execution the Reactive
// Loop places in FireContext.Extra["execution"] at those two phases. A
// firing with no execution in Extra (e.g. another caller's custom phase
// wiring) is a no-op rather than an error.
func Hook(m *Manager) hooks.Hook {
	return hooks.FuncHook{
		HookName:   "checkpoint",
		HookPhases: []hooks.Phase{hooks.PhaseStepComplete, hooks.PhaseError},
		Fn: func(ctx context.Context, fire hooks.FireContext) (hooks.Outcome, error) {
			if !m.IsEnabled() {
				return hooks.Outcome{Decision: hooks.Continue}, nil
			}
			exec, _ := fire.Extra["execution"].(*task.Execution)
			if exec == nil {
				return hooks.Outcome{Decision: hooks.Continue}, nil
			}

			switch fire.Phase {
			case hooks.PhaseStepComplete:
				_ = m.SaveStep(ctx, exec)
			case hooks.PhaseError:
				_ = m.Save(ctx, SnapshotError(exec, fire.Err))
			}
			return hooks.Outcome{Decision: hooks.Continue}, nil
		},
	}
}
