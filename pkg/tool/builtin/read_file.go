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

const defaultMaxFileSize = 10 * 1024 * 1024

// ReadFileTool reads a file's contents with optional line-range selection,
// grounded on the teacher's pkg/tools.ReadFileTool.
type ReadFileTool struct {
	base
	MaxFileSize int64
}

// NewReadFileTool constructs a ReadFileTool confined to workingDir.
func NewReadFileTool(workingDir string) *ReadFileTool {
	return &ReadFileTool{
		base: base{
			name:        "read_file",
			description: "Read the contents of a file with optional line numbers and range selection. Use to understand code structure and context before making edits.",
			risk:        task.RiskLow,
			concurrency: task.ConcurrencyParallel,
			category:    tool.CategoryFilesystem,
			workingDir:  workingDir,
		},
		MaxFileSize: defaultMaxFileSize,
	}
}

func (t *ReadFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":         map[string]any{"type": "string", "description": "File path to read (relative to working directory)"},
			"start_line":   map[string]any{"type": "number", "description": "Starting line number (1-indexed, optional)"},
			"end_line":     map[string]any{"type": "number", "description": "Ending line number (inclusive, optional)"},
			"line_numbers": map[string]any{"type": "boolean", "description": "Include line numbers in output (default: true)"},
		},
		"required": []any{"path"},
	}
}

func (t *ReadFileTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, ok := stringArg(call.Args, "path")
	if !ok || path == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path parameter is required", start)
	}

	fullPath, err := t.resolvePath(path)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrNotFound, fmt.Sprintf("failed to stat file: %v", err), start)
	}
	if info.Size() > t.MaxFileSize {
		return errResult(t.name, call.ID, tool.ErrValidationFailed,
			fmt.Sprintf("file too large: %d bytes (max: %d)", info.Size(), t.MaxFileSize), start)
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to read file: %v", err), start)
	}

	showLineNumbers := boolArg(call.Args, "line_numbers", true)
	lines := strings.Split(string(content), "\n")
	totalLines := len(lines)

	startLine := intArg(call.Args, "start_line", 1)
	if startLine < 1 {
		startLine = 1
	}
	endLine := intArg(call.Args, "end_line", totalLines)
	if endLine > totalLines {
		endLine = totalLines
	}
	if startLine > endLine {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments,
			fmt.Sprintf("invalid range: start_line (%d) > end_line (%d)", startLine, endLine), start)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "FILE: %s\n", path)
	fmt.Fprintf(&out, "STATS: Total lines: %d", totalLines)
	if startLine != 1 || endLine != totalLines {
		fmt.Fprintf(&out, " | Showing lines %d-%d", startLine, endLine)
	}
	out.WriteString("\n")
	for i := startLine - 1; i < endLine && i < len(lines); i++ {
		if showLineNumbers {
			fmt.Fprintf(&out, "%6d| %s\n", i+1, lines[i])
		} else {
			fmt.Fprintf(&out, "%s\n", lines[i])
		}
	}

	return okResult(t.name, call.ID, out.String(), map[string]any{
		"path":        path,
		"total_lines": totalLines,
		"start_line":  startLine,
		"end_line":    endLine,
		"file_size":   info.Size(),
	}, start), nil
}
