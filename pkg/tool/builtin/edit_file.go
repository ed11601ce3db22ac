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

// EditFileTool replaces one exact occurrence of old_string with new_string,
// grounded on the teacher's pkg/tools.SearchReplaceTool.
type EditFileTool struct {
	base
}

func NewEditFileTool(workingDir string) *EditFileTool {
	return &EditFileTool{base: base{
		name:        "edit_file",
		description: "Replace an exact, unique occurrence of old_string with new_string in a file.",
		risk:        task.RiskHigh,
		concurrency: task.ConcurrencyExclusiveByType,
		category:    tool.CategoryFilesystem,
		workingDir:  workingDir,
	}}
}

func (t *EditFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":        map[string]any{"type": "string"},
			"old_string":  map[string]any{"type": "string", "description": "Exact text to replace; must be unique in the file unless replace_all is set"},
			"new_string":  map[string]any{"type": "string"},
			"replace_all": map[string]any{"type": "boolean", "description": "Replace every occurrence instead of requiring uniqueness"},
		},
		"required": []any{"path", "old_string", "new_string"},
	}
}

func (t *EditFileTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, _ := stringArg(call.Args, "path")
	oldString, _ := stringArg(call.Args, "old_string")
	newString, _ := stringArg(call.Args, "new_string")
	if path == "" || oldString == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path and old_string are required", start)
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

	count := strings.Count(content, oldString)
	if count == 0 {
		return errResult(t.name, call.ID, tool.ErrValidationFailed, "old_string not found in file", start)
	}

	replaceAll := boolArg(call.Args, "replace_all", false)
	if count > 1 && !replaceAll {
		return errResult(t.name, call.ID, tool.ErrValidationFailed,
			fmt.Sprintf("old_string is not unique: found %d occurrences, pass replace_all or narrow the match", count), start)
	}

	var updated string
	if replaceAll {
		updated = strings.ReplaceAll(content, oldString, newString)
	} else {
		updated = strings.Replace(content, oldString, newString, 1)
	}

	if err := os.WriteFile(fullPath, []byte(updated), 0o644); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to write file: %v", err), start)
	}

	replacements := 1
	if replaceAll {
		replacements = count
	}
	return okResult(t.name, call.ID, fmt.Sprintf("replaced %d occurrence(s) in %s", replacements, path), map[string]any{
		"path":         path,
		"replacements": replacements,
	}, start), nil
}
