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
	"path/filepath"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// WriteFileTool creates or overwrites a file, grounded on the teacher's
// pkg/tools.FileWriterTool. The read-before-write invariant the spec
// requires for mutating tools is the executor's concern (it tracks the
// per-session read set), not this tool's.
type WriteFileTool struct {
	base
}

func NewWriteFileTool(workingDir string) *WriteFileTool {
	return &WriteFileTool{base: base{
		name:        "write_file",
		description: "Write content to a file, creating it (and parent directories) if needed, or overwriting it if it exists.",
		risk:        task.RiskHigh,
		concurrency: task.ConcurrencyExclusiveByType,
		category:    tool.CategoryFilesystem,
		workingDir:  workingDir,
	}}
}

func (t *WriteFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "File path to write (relative to working directory)"},
			"content": map[string]any{"type": "string", "description": "Full content to write"},
		},
		"required": []any{"path", "content"},
	}
}

func (t *WriteFileTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, ok := stringArg(call.Args, "path")
	if !ok || path == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path parameter is required", start)
	}
	content, ok := stringArg(call.Args, "content")
	if !ok {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "content parameter is required", start)
	}

	fullPath, err := t.resolvePath(path)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to create parent directories: %v", err), start)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to write file: %v", err), start)
	}

	return okResult(t.name, call.ID, fmt.Sprintf("wrote %d bytes to %s", len(content), path), map[string]any{
		"path":  path,
		"bytes": len(content),
	}, start), nil
}
