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
	"fmt"
	"sync"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// TodoItem is one entry of a session's structured task list.
type TodoItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Status  string `json:"status"` // pending, in_progress, completed, cancelled
}

// TodoWriteTool lets the model create and update a per-session structured
// task list, grounded on the teacher's pkg/tools.TodoTool (Cursor-style
// todo_write). Per-session state is keyed by task.ToolCall.Args["session_id"]
// if present, otherwise a single shared list is used.
type TodoWriteTool struct {
	base
	mu    sync.RWMutex
	todos map[string][]TodoItem
}

func NewTodoWriteTool() *TodoWriteTool {
	return &TodoWriteTool{
		base: base{
			name:        "todo_write",
			description: "Create and manage a structured task list for tracking progress. Use for complex multi-step tasks (3+ steps) to demonstrate thoroughness.",
			risk:        task.RiskLow,
			concurrency: task.ConcurrencyExclusiveByType,
			category:    tool.CategoryTaskMgmt,
		},
		todos: make(map[string][]TodoItem),
	}
}

func (t *TodoWriteTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"merge": map[string]any{"type": "boolean", "description": "If true, merge with existing todos; if false, replace all"},
			"todos": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":      map[string]any{"type": "string"},
						"content": map[string]any{"type": "string"},
						"status":  map[string]any{"type": "string", "enum": []any{"pending", "in_progress", "completed", "cancelled"}},
					},
					"required": []any{"id", "content", "status"},
				},
			},
		},
		"required": []any{"merge", "todos"},
	}
}

func (t *TodoWriteTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	merge := boolArg(call.Args, "merge", false)
	rawTodos, ok := call.Args["todos"].([]any)
	if !ok {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "todos must be an array", start)
	}

	items := make([]TodoItem, 0, len(rawTodos))
	for i, rt := range rawTodos {
		m, ok := rt.(map[string]any)
		if !ok {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("todos[%d] must be an object", i), start)
		}
		id, _ := stringArg(m, "id")
		content, _ := stringArg(m, "content")
		status, _ := stringArg(m, "status")
		if id == "" || content == "" || !validTodoStatus(status) {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments,
				fmt.Sprintf("todos[%d] requires id, content, and a valid status", i), start)
		}
		items = append(items, TodoItem{ID: id, Content: content, Status: status})
	}

	sessionID, _ := stringArg(call.Args, "session_id")

	t.mu.Lock()
	if merge {
		t.todos[sessionID] = mergeTodos(t.todos[sessionID], items)
	} else {
		t.todos[sessionID] = items
	}
	current := t.todos[sessionID]
	t.mu.Unlock()

	counts := map[string]int{}
	for _, item := range current {
		counts[item.Status]++
	}

	return okResult(t.name, call.ID, fmt.Sprintf("%d todo(s) tracked: %d pending, %d in progress, %d completed, %d cancelled",
		len(current), counts["pending"], counts["in_progress"], counts["completed"], counts["cancelled"]),
		map[string]any{"todos": current}, start), nil
}

func validTodoStatus(s string) bool {
	switch s {
	case "pending", "in_progress", "completed", "cancelled":
		return true
	default:
		return false
	}
}

func mergeTodos(existing, updates []TodoItem) []TodoItem {
	byID := make(map[string]int, len(existing))
	merged := make([]TodoItem, len(existing))
	copy(merged, existing)
	for i, item := range merged {
		byID[item.ID] = i
	}
	for _, u := range updates {
		if i, ok := byID[u.ID]; ok {
			merged[i] = u
		} else {
			byID[u.ID] = len(merged)
			merged = append(merged, u)
		}
	}
	return merged
}
