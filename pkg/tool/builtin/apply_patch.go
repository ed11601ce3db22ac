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

// ApplyPatchTool is a context-validated variant of EditFileTool: it requires
// a unique match and (optionally) that old_string/new_string carry the same
// number of leading/trailing context lines, and leaves a .bak backup before
// writing. Grounded on the teacher's pkg/tools.ApplyPatchTool.
type ApplyPatchTool struct {
	base
	ContextLines int
	CreateBackup bool
}

func NewApplyPatchTool(workingDir string) *ApplyPatchTool {
	return &ApplyPatchTool{
		base: base{
			name:        "apply_patch",
			description: "Apply a patch to a file by finding and replacing text with surrounding context. More robust than edit_file for code edits. Validates context before applying changes.",
			risk:        task.RiskHigh,
			concurrency: task.ConcurrencyExclusiveByType,
			category:    tool.CategoryFilesystem,
			workingDir:  workingDir,
		},
		ContextLines: 3,
		CreateBackup: true,
	}
}

func (t *ApplyPatchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":               map[string]any{"type": "string", "description": "File path to edit (relative to working directory)"},
			"old_string":         map[string]any{"type": "string", "description": "Text to find with sufficient surrounding context (3-5 lines before and after the change)"},
			"new_string":         map[string]any{"type": "string", "description": "Replacement text (should include the same context as old_string)"},
			"context_validation": map[string]any{"type": "boolean", "description": "Validate that surrounding context matches (default: true)"},
		},
		"required": []any{"path", "old_string", "new_string"},
	}
}

func (t *ApplyPatchTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, _ := stringArg(call.Args, "path")
	oldString, _ := stringArg(call.Args, "old_string")
	newString, ok := stringArg(call.Args, "new_string")
	if path == "" || oldString == "" || !ok {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path, old_string and new_string are required", start)
	}
	contextValidation := boolArg(call.Args, "context_validation", true)

	fullPath, err := t.resolvePath(path)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrNotFound, fmt.Sprintf("failed to read file: %v", err), start)
	}
	content := string(raw)

	if !strings.Contains(content, oldString) {
		return errResult(t.name, call.ID, tool.ErrValidationFailed,
			"patch context not found in file; old_string must match exactly including whitespace", start)
	}
	if count := strings.Count(content, oldString); count > 1 {
		return errResult(t.name, call.ID, tool.ErrValidationFailed,
			fmt.Sprintf("ambiguous patch: old_string appears %d times, add more context to make it unique", count), start)
	}

	if contextValidation {
		if err := t.validateContextLines(oldString, newString); err != nil {
			return errResult(t.name, call.ID, tool.ErrValidationFailed, fmt.Sprintf("context validation failed: %v", err), start)
		}
	}

	updated := strings.Replace(content, oldString, newString, 1)

	if t.CreateBackup {
		if err := os.WriteFile(fullPath+".bak", raw, 0o644); err != nil {
			return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to create backup: %v", err), start)
		}
	}
	if err := os.WriteFile(fullPath, []byte(updated), 0o644); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to write file: %v", err), start)
	}

	oldLines := strings.Split(oldString, "\n")
	newLines := strings.Split(newString, "\n")
	return okResult(t.name, call.ID, fmt.Sprintf("patched %s: %d line(s) -> %d line(s)", path, len(oldLines), len(newLines)), map[string]any{
		"path":    path,
		"backup": t.CreateBackup,
	}, start), nil
}

// validateContextLines requires old_string and new_string to share the same
// leading and trailing line, a cheap guard against a patch that silently
// drops the surrounding context it claims to preserve.
func (t *ApplyPatchTool) validateContextLines(oldString, newString string) error {
	oldLines := strings.Split(oldString, "\n")
	newLines := strings.Split(newString, "\n")
	if len(oldLines) == 0 || len(newLines) == 0 {
		return nil
	}
	if oldLines[0] != newLines[0] {
		return fmt.Errorf("leading context line differs between old_string and new_string")
	}
	if oldLines[len(oldLines)-1] != newLines[len(newLines)-1] {
		return fmt.Errorf("trailing context line differs between old_string and new_string")
	}
	return nil
}
