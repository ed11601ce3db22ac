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
	"os"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// MultiEditTool applies a sequence of old/new string replacements to a
// single file atomically: either every edit applies or none does. Built as
// a batch generalization of EditFileTool, grounded the same way on the
// teacher's pkg/tools.SearchReplaceTool.
type MultiEditTool struct {
	base
}

func NewMultiEditTool(workingDir string) *MultiEditTool {
	return &MultiEditTool{base: base{
		name:        "multi_edit",
		description: "Apply multiple exact-match old_string/new_string replacements to one file atomically, in order.",
		risk:        task.RiskHigh,
		concurrency: task.ConcurrencyExclusiveByType,
		category:    tool.CategoryFilesystem,
		workingDir:  workingDir,
	}}
}

func (t *MultiEditTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
			"edits": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"old_string":  map[string]any{"type": "string"},
						"new_string":  map[string]any{"type": "string"},
						"replace_all": map[string]any{"type": "boolean"},
					},
					"required": []any{"old_string", "new_string"},
				},
			},
		},
		"required": []any{"path", "edits"},
	}
}

func (t *MultiEditTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, _ := stringArg(call.Args, "path")
	if path == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path is required", start)
	}
	rawEdits, ok := call.Args["edits"].([]any)
	if !ok || len(rawEdits) == 0 {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "edits must be a non-empty array", start)
	}

	fullPath, err := t.resolvePath(path)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrNotFound, fmt.Sprintf("failed to read file: %v", err), start)
	}
	content := string(raw)

	applied := 0
	for i, re := range rawEdits {
		edit, ok := re.(map[string]any)
		if !ok {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("edits[%d] must be an object", i), start)
		}
		oldString, _ := stringArg(edit, "old_string")
		newString, _ := stringArg(edit, "new_string")
		if oldString == "" {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("edits[%d].old_string is required", i), start)
		}

		count := strings.Count(content, oldString)
		if count == 0 {
			return errResult(t.name, call.ID, tool.ErrValidationFailed,
				fmt.Sprintf("edits[%d]: old_string not found (no changes applied)", i), start)
		}
		replaceAll := boolArg(edit, "replace_all", false)
		if count > 1 && !replaceAll {
			return errResult(t.name, call.ID, tool.ErrValidationFailed,
				fmt.Sprintf("edits[%d]: old_string is not unique: found %d occurrences (no changes applied)", i, count), start)
		}
		if replaceAll {
			content = strings.ReplaceAll(content, oldString, newString)
			applied += count
		} else {
			content = strings.Replace(content, oldString, newString, 1)
			applied++
		}
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to write file: %v", err), start)
	}

	return okResult(t.name, call.ID, fmt.Sprintf("applied %d edit(s) across %d replacement(s) in %s", len(rawEdits), applied, path), map[string]any{
		"path":         path,
		"edits":        len(rawEdits),
		"replacements": applied,
	}, start), nil
}
