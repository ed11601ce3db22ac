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
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// JSONEditTool sets a value at a dotted path inside a JSON file, generalized
// from the teacher's string-based edit tools (SearchReplaceTool,
// ApplyPatchTool) onto structured JSON so config and manifest files can be
// edited by field instead of by exact-text match.
type JSONEditTool struct {
	base
}

func NewJSONEditTool(workingDir string) *JSONEditTool {
	return &JSONEditTool{base: base{
		name:        "json_edit",
		description: "Set, or delete, a value at a dotted path (e.g. 'a.b.2.c') inside a JSON file.",
		risk:        task.RiskHigh,
		concurrency: task.ConcurrencyExclusiveByType,
		category:    tool.CategoryFilesystem,
		workingDir:  workingDir,
	}}
}

func (t *JSONEditTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":       map[string]any{"type": "string", "description": "JSON file path"},
			"json_path":  map[string]any{"type": "string", "description": "Dotted path to the field, e.g. 'server.port' or 'items.0.name'"},
			"value":      map[string]any{"description": "Value to set; ignored when delete is true"},
			"delete":     map[string]any{"type": "boolean", "description": "Delete the field instead of setting it"},
		},
		"required": []any{"path", "json_path"},
	}
}

func (t *JSONEditTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	path, _ := stringArg(call.Args, "path")
	jsonPath, _ := stringArg(call.Args, "json_path")
	if path == "" || jsonPath == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "path and json_path are required", start)
	}

	fullPath, err := t.resolvePath(path)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrNotFound, fmt.Sprintf("failed to read file: %v", err), start)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errResult(t.name, call.ID, tool.ErrValidationFailed, fmt.Sprintf("file is not valid JSON: %v", err), start)
	}

	segments := strings.Split(jsonPath, ".")
	deleteField := boolArg(call.Args, "delete", false)

	if deleteField {
		if err := deleteAtPath(doc, segments); err != nil {
			return errResult(t.name, call.ID, tool.ErrValidationFailed, err.Error(), start)
		}
	} else {
		value := call.Args["value"]
		doc, err = setAtPath(doc, segments, value)
		if err != nil {
			return errResult(t.name, call.ID, tool.ErrValidationFailed, err.Error(), start)
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInternal, fmt.Sprintf("failed to marshal updated document: %v", err), start)
	}
	if err := os.WriteFile(fullPath, out, 0o644); err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("failed to write file: %v", err), start)
	}

	action := "set"
	if deleteField {
		action = "deleted"
	}
	return okResult(t.name, call.ID, fmt.Sprintf("%s field %q in %s", action, jsonPath, path), map[string]any{
		"path":      path,
		"json_path": jsonPath,
	}, start), nil
}

// setAtPath returns a new root document with value set at segments,
// creating intermediate maps as needed. root may be replaced outright when
// segments is empty.
func setAtPath(root any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	return setRecursive(root, segments, value)
}

func setRecursive(node any, segments []string, value any) (any, error) {
	key := segments[0]
	rest := segments[1:]

	switch n := node.(type) {
	case map[string]any:
		if n == nil {
			n = map[string]any{}
		}
		if len(rest) == 0 {
			n[key] = value
			return n, nil
		}
		child, err := setRecursive(n[key], rest, value)
		if err != nil {
			return nil, err
		}
		n[key] = child
		return n, nil
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid array index %q", key)
		}
		for idx >= len(n) {
			n = append(n, nil)
		}
		if len(rest) == 0 {
			n[idx] = value
			return n, nil
		}
		child, err := setRecursive(n[idx], rest, value)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	case nil:
		return setRecursive(map[string]any{}, segments, value)
	default:
		return nil, fmt.Errorf("cannot descend into scalar value at %q", key)
	}
}

func deleteAtPath(node any, segments []string) error {
	if len(segments) == 0 {
		return fmt.Errorf("json_path must not be empty")
	}
	key := segments[0]
	rest := segments[1:]

	switch n := node.(type) {
	case map[string]any:
		if len(rest) == 0 {
			delete(n, key)
			return nil
		}
		child, ok := n[key]
		if !ok {
			return fmt.Errorf("field %q not found", key)
		}
		return deleteAtPath(child, rest)
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(n) {
			return fmt.Errorf("invalid array index %q", key)
		}
		if len(rest) == 0 {
			n[idx] = nil
			return nil
		}
		return deleteAtPath(n[idx], rest)
	default:
		return fmt.Errorf("cannot descend into scalar value at %q", key)
	}
}
