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

package builtin

import (
	"context"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// ThinkTool gives the model a place to record structured reasoning without
// taking any action; it has no side effects and always succeeds, so it
// costs nothing beyond a trajectory entry and a step in the loop.
type ThinkTool struct {
	base
}

func NewThinkTool() *ThinkTool {
	return &ThinkTool{base: base{
		name:        "think",
		description: "Record a structured thought or plan without taking any action. Use to reason step by step before calling other tools.",
		risk:        task.RiskLow,
		concurrency: task.ConcurrencyParallel,
		category:    tool.CategoryReasoning,
	}}
}

func (t *ThinkTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"thought": map[string]any{"type": "string", "description": "The reasoning to record"},
		},
		"required": []any{"thought"},
	}
}

func (t *ThinkTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	thought, _ := stringArg(call.Args, "thought")
	return okResult(t.name, call.ID, thought, nil, start), nil
}
