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
	"regexp"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// GrepTool searches file contents for a regular expression, grounded on
// the teacher's pkg/tools.GrepSearchTool.
type GrepTool struct {
	base
	MaxResults   int
	MaxFileSize  int64
	ContextLines int
}

func NewGrepTool(workingDir string) *GrepTool {
	return &GrepTool{
		base: base{
			name:        "grep",
			description: "Search for a regular expression pattern across files in a directory, with surrounding context lines.",
			risk:        task.RiskLow,
			concurrency: task.ConcurrencyParallel,
			category:    tool.CategorySearch,
			workingDir:  workingDir,
		},
		MaxResults:   1000,
		MaxFileSize:  defaultMaxFileSize,
		ContextLines: 2,
	}
}

func (t *GrepTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern":      map[string]any{"type": "string", "description": "Regular expression pattern (Go regex syntax)"},
			"path":         map[string]any{"type": "string", "description": "File or directory to search in (default: working directory)"},
			"file_pattern": map[string]any{"type": "string", "description": "Glob to filter filenames, e.g. '*.go'"},
		},
		"required": []any{"pattern"},
	}
}

func (t *GrepTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	pattern, _ := stringArg(call.Args, "pattern")
	if pattern == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "pattern parameter is required", start)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("invalid regex: %v", err), start)
	}

	searchPath, _ := stringArg(call.Args, "path")
	if searchPath == "" {
		searchPath = "."
	}
	filePattern, _ := stringArg(call.Args, "file_pattern")

	fullPath, err := t.resolvePath(searchPath)
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, err.Error(), start)
	}

	var matches []string
	matchCount := 0
	walkErr := filepath.Walk(fullPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || matchCount >= t.MaxResults {
			return nil
		}
		if info.Size() > t.MaxFileSize {
			return nil
		}
		if filePattern != "" {
			if ok, _ := filepath.Match(filePattern, info.Name()); !ok {
				return nil
			}
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		lines := strings.Split(string(content), "\n")
		rel, _ := filepath.Rel(t.workingDir, p)
		for i, line := range lines {
			if matchCount >= t.MaxResults {
				break
			}
			if !re.MatchString(line) {
				continue
			}
			matchCount++
			lo := i - t.ContextLines
			if lo < 0 {
				lo = 0
			}
			hi := i + t.ContextLines
			if hi >= len(lines) {
				hi = len(lines) - 1
			}
			var block strings.Builder
			fmt.Fprintf(&block, "%s:%d:\n", rel, i+1)
			for j := lo; j <= hi; j++ {
				marker := "  "
				if j == i {
					marker = "> "
				}
				fmt.Fprintf(&block, "%s%6d| %s\n", marker, j+1, lines[j])
			}
			matches = append(matches, block.String())
		}
		return nil
	})
	if walkErr != nil && walkErr != ctx.Err() {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("search failed: %v", walkErr), start)
	}
	if walkErr == ctx.Err() && ctx.Err() != nil {
		return errResult(t.name, call.ID, tool.ErrCancelled, "search cancelled", start)
	}

	output := fmt.Sprintf("Found %d match(es)\n%s", matchCount, strings.Join(matches, "\n"))
	return okResult(t.name, call.ID, output, map[string]any{"matches": matchCount}, start), nil
}
