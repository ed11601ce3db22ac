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

// Package builtin implements the core's built-in tool set: file
// read/write/edit/multi-edit/patch, glob, grep, bash, JSON editing, task
// tracking, validated web fetch, and structured thinking. Grounded on the
// teacher's pkg/tools (ReadFileTool, FileWriterTool, SearchReplaceTool,
// ApplyPatchTool, GrepSearchTool, CommandTool, TodoTool, WebRequestTool),
// adapted from the teacher's ToolInfo/ToolResult wire shapes onto this
// module's tool.Tool interface and task.ToolResult.
package builtin

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// base centralizes the working-directory confinement every filesystem tool
// in this package enforces, mirroring the teacher's ReadFileTool.validatePath.
type base struct {
	name        string
	description string
	risk        task.RiskLevel
	concurrency task.ConcurrencyMode
	category    tool.Category
	workingDir  string
}

func (b base) Name() string                         { return b.name }
func (b base) Description() string                  { return b.description }
func (b base) RiskLevel() task.RiskLevel             { return b.risk }
func (b base) ConcurrencyMode() task.ConcurrencyMode { return b.concurrency }
func (b base) Category() tool.Category               { return b.category }
func (b base) RequiresApproval() bool                { return b.risk >= task.RiskHigh }

// resolvePath confines path to workingDir, rejecting absolute paths and
// directory traversal the same way the teacher's filesystem tools do.
func (b base) resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths not allowed, use relative paths")
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("directory traversal not allowed (..)")
	}

	workDir := b.workingDir
	if workDir == "" {
		workDir = "."
	}
	full := filepath.Join(workDir, cleaned)

	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("invalid working directory: %w", err)
	}
	if !strings.HasPrefix(absFull, absWorkDir) {
		return "", fmt.Errorf("path escapes working directory")
	}
	return full, nil
}

func errResult(toolName, callID string, kind tool.ErrorKind, msg string, start time.Time) (task.ToolResult, error) {
	return task.ToolResult{
		CallID:   callID,
		ToolName: toolName,
		Success:  false,
		Error:    msg,
		Duration: time.Since(start),
	}, tool.NewError(kind, toolName, msg)
}

func okResult(toolName, callID, output string, metadata map[string]any, start time.Time) task.ToolResult {
	return task.ToolResult{
		CallID:   callID,
		ToolName: toolName,
		Success:  true,
		Output:   output,
		Metadata: metadata,
		Duration: time.Since(start),
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
