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
	"os/exec"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// BashTool executes a shell command, grounded on the teacher's
// pkg/tools.CommandTool. AllowedCommands, when non-empty, restricts
// execution to an allowlist of base commands (the part before any pipe,
// redirect, or `;`); an empty allowlist permits anything, matching the
// teacher's sandboxing-opt-out default.
type BashTool struct {
	base
	AllowedCommands []string
	Timeout         time.Duration
}

func NewBashTool(workingDir string) *BashTool {
	return &BashTool{
		base: base{
			name:        "bash",
			description: "Execute a shell command. Supports pipes and redirects. Use 'sed -n \"START,ENDp\" FILE' to read specific line ranges.",
			risk:        task.RiskCritical,
			concurrency: task.ConcurrencySequential,
			category:    tool.CategoryExecution,
			workingDir:  workingDir,
		},
		Timeout: 30 * time.Second,
	}
}

func (t *BashTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command":     map[string]any{"type": "string", "description": "Shell command to execute"},
			"working_dir": map[string]any{"type": "string", "description": "Working directory override (optional)"},
		},
		"required": []any{"command"},
	}
}

func (t *BashTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	command, _ := stringArg(call.Args, "command")
	if command == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "command parameter is required", start)
	}

	if err := t.validateCommand(command); err != nil {
		return errResult(t.name, call.ID, tool.ErrPermissionDenied, err.Error(), start)
	}

	workDir, _ := stringArg(call.Args, "working_dir")
	if workDir == "" {
		workDir = t.workingDir
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if t.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir

	output, err := cmd.CombinedOutput()
	if execCtx.Err() != nil {
		return errResult(t.name, call.ID, tool.ErrTimeout, fmt.Sprintf("command timed out after %s", t.Timeout), start)
	}

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to run command: %v", err), start)
	}

	result := task.ToolResult{
		CallID:   call.ID,
		ToolName: t.name,
		Success:  exitCode == 0,
		Output:   string(output),
		Duration: time.Since(start),
		ExitCode: &exitCode,
	}
	if exitCode != 0 {
		result.Error = fmt.Sprintf("command exited with status %d", exitCode)
	}
	return result, nil
}

func (t *BashTool) validateCommand(command string) error {
	if len(t.AllowedCommands) == 0 {
		return nil
	}
	base := extractBaseCommand(command)
	for _, allowed := range t.AllowedCommands {
		if base == allowed {
			return nil
		}
	}
	return fmt.Errorf("command not allowed: %s (allowed: %v)", base, t.AllowedCommands)
}

func extractBaseCommand(command string) string {
	parts := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == '>' || r == '<' || r == ';'
	})
	if len(parts) == 0 {
		return ""
	}
	fields := strings.Fields(strings.TrimSpace(parts[0]))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
