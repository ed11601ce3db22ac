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
	"sort"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// GlobTool lists files matching a glob pattern, sorted by modification time
// (most recent first), grounded in spirit on the teacher's file-discovery
// tools but using filepath.Glob directly since the teacher has no
// standalone glob tool of its own.
type GlobTool struct {
	base
	MaxResults int
}

func NewGlobTool(workingDir string) *GlobTool {
	return &GlobTool{
		base: base{
			name:        "glob",
			description: "List files matching a glob pattern (e.g. '**/*.go'), most recently modified first.",
			risk:        task.RiskLow,
			concurrency: task.ConcurrencyParallel,
			category:    tool.CategorySearch,
			workingDir:  workingDir,
		},
		MaxResults: 1000,
	}
}

func (t *GlobTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string", "description": "Glob pattern, relative to working directory"},
		},
		"required": []any{"pattern"},
	}
}

func (t *GlobTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	pattern, _ := stringArg(call.Args, "pattern")
	if pattern == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "pattern parameter is required", start)
	}

	workDir := t.workingDir
	if workDir == "" {
		workDir = "."
	}

	var results []string
	fullPattern := pattern
	if !filepath.IsAbs(pattern) {
		fullPattern = filepath.Join(workDir, pattern)
	}

	if containsDoubleStar(pattern) {
		var err error
		results, err = globDoubleStar(workDir, pattern)
		if err != nil {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("invalid pattern: %v", err), start)
		}
	} else {
		matches, err := filepath.Glob(fullPattern)
		if err != nil {
			return errResult(t.name, call.ID, tool.ErrInvalidArguments, fmt.Sprintf("invalid pattern: %v", err), start)
		}
		results = matches
	}

	type entry struct {
		path    string
		modTime int64
	}
	entries := make([]entry, 0, len(results))
	for _, r := range results {
		info, err := os.Stat(r)
		if err != nil || info.IsDir() {
			continue
		}
		entries = append(entries, entry{path: r, modTime: info.ModTime().UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime > entries[j].modTime })

	if len(entries) > t.MaxResults {
		entries = entries[:t.MaxResults]
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		rel, err := filepath.Rel(workDir, e.path)
		if err != nil {
			rel = e.path
		}
		paths[i] = rel
	}

	output := fmt.Sprintf("Found %d file(s)", len(paths))
	for _, p := range paths {
		output += "\n" + p
	}
	return okResult(t.name, call.ID, output, map[string]any{"count": len(paths), "files": paths}, start), nil
}

func containsDoubleStar(pattern string) bool {
	return strings.Contains(pattern, "**")
}

// globDoubleStar walks root, matching each file's path (relative to root,
// slash-separated) against pattern compiled to a regex where ** matches
// any number of path segments and * matches within one segment, since
// filepath.Glob itself has no recursive-wildcard support.
func globDoubleStar(root, pattern string) ([]string, error) {
	re, err := doubleStarPattern(pattern)
	if err != nil {
		return nil, err
	}

	var matches []string
	err = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, p)
		}
		return nil
	})
	return matches, err
}

// doubleStarPattern compiles a glob with ** segments into a regexp: "**"
// matches zero or more path segments, "*" matches within one segment, "?"
// matches one character.
func doubleStarPattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case i+1 < len(runes) && runes[i] == '*' && runes[i+1] == '*':
			sb.WriteString(".*")
			i++
		case runes[i] == '*':
			sb.WriteString("[^/]*")
		case runes[i] == '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	sb.WriteByte('$')
	return regexp.Compile(sb.String())
}
