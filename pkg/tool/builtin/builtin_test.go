package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/task"
)

func tempWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return dir
}

func TestReadFileTool_ReadsRangeWithLineNumbers(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\ntwo\nthree\n"), 0o644))

	rt := NewReadFileTool(dir)
	result, err := rt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "a.txt", "start_line": float64(2), "end_line": float64(3)}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "two")
	assert.Contains(t, result.Output, "three")
	assert.NotContains(t, result.Output, "     1| one")
}

func TestReadFileTool_RejectsDirectoryTraversal(t *testing.T) {
	dir := tempWorkDir(t)
	rt := NewReadFileTool(dir)
	_, err := rt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "../etc/passwd"}})
	assert.Error(t, err)
}

func TestWriteFileTool_CreatesParentDirsAndWrites(t *testing.T) {
	dir := tempWorkDir(t)
	wt := NewWriteFileTool(dir)
	result, err := wt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "nested/out.txt", "content": "hello"}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	content, err := os.ReadFile(filepath.Join(dir, "nested", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestEditFileTool_RequiresUniqueMatch(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo\nfoo\n"), 0o644))

	et := NewEditFileTool(dir)
	_, err := et.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "a.txt", "old_string": "foo", "new_string": "bar"}})
	assert.Error(t, err)

	result, err := et.Call(context.Background(), task.ToolCall{ID: "2", Args: map[string]any{"path": "a.txt", "old_string": "foo", "new_string": "bar", "replace_all": true}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	content, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.Equal(t, "bar\nbar\n", string(content))
}

func TestMultiEditTool_AppliesEditsInOrder(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha beta gamma"), 0o644))

	mt := NewMultiEditTool(dir)
	result, err := mt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{
		"path": "a.txt",
		"edits": []any{
			map[string]any{"old_string": "alpha", "new_string": "ALPHA"},
			map[string]any{"old_string": "gamma", "new_string": "GAMMA"},
		},
	}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	content, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.Equal(t, "ALPHA beta GAMMA", string(content))
}

func TestMultiEditTool_FailsWithoutApplyingPartialEdits(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha beta"), 0o644))

	mt := NewMultiEditTool(dir)
	_, err := mt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{
		"path": "a.txt",
		"edits": []any{
			map[string]any{"old_string": "alpha", "new_string": "ALPHA"},
			map[string]any{"old_string": "missing", "new_string": "x"},
		},
	}})
	assert.Error(t, err)

	content, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	assert.Equal(t, "alpha beta", string(content))
}

func TestApplyPatchTool_ValidatesContextAndBacksUp(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("func f() {\n\tx := 1\n\treturn x\n}\n"), 0o644))

	pt := NewApplyPatchTool(dir)
	result, err := pt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{
		"path":       "a.go",
		"old_string": "func f() {\n\tx := 1\n\treturn x\n}",
		"new_string": "func f() {\n\tx := 2\n\treturn x\n}",
	}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = os.Stat(filepath.Join(dir, "a.go.bak"))
	assert.NoError(t, err)
}

func TestGlobTool_FindsSimpleAndDoubleStarPatterns(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.go"), []byte("package b"), 0o644))

	gt := NewGlobTool(dir)
	result, err := gt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"pattern": "**/*.go"}})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "a.go")
	assert.Contains(t, result.Output, filepath.Join("sub", "b.go"))
}

func TestGrepTool_FindsMatchWithContext(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\ntwo\nTODO: fix\nfour\n"), 0o644))

	gt := NewGrepTool(dir)
	result, err := gt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"pattern": "TODO"}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "TODO: fix")
}

func TestBashTool_CapturesOutputAndExitCode(t *testing.T) {
	bt := NewBashTool(t.TempDir())
	result, err := bt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"command": "echo hi"}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "hi")
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
}

func TestBashTool_RejectsDisallowedCommand(t *testing.T) {
	bt := NewBashTool(t.TempDir())
	bt.AllowedCommands = []string{"ls"}
	_, err := bt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"command": "rm -rf /"}})
	assert.Error(t, err)
}

func TestJSONEditTool_SetsNestedField(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"server":{"port":8080}}`), 0o644))

	jt := NewJSONEditTool(dir)
	result, err := jt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "c.json", "json_path": "server.port", "value": float64(9090)}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	raw, _ := os.ReadFile(filepath.Join(dir, "c.json"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, float64(9090), doc["server"].(map[string]any)["port"])
}

func TestJSONEditTool_DeletesField(t *testing.T) {
	dir := tempWorkDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"a":1,"b":2}`), 0o644))

	jt := NewJSONEditTool(dir)
	result, err := jt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"path": "c.json", "json_path": "a", "delete": true}})
	require.NoError(t, err)
	assert.True(t, result.Success)

	raw, _ := os.ReadFile(filepath.Join(dir, "c.json"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	_, exists := doc["a"]
	assert.False(t, exists)
}

func TestTodoWriteTool_ReplaceThenMerge(t *testing.T) {
	tt := NewTodoWriteTool()
	_, err := tt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{
		"merge": false,
		"todos": []any{
			map[string]any{"id": "1", "content": "write tests", "status": "pending"},
		},
	}})
	require.NoError(t, err)

	result, err := tt.Call(context.Background(), task.ToolCall{ID: "2", Args: map[string]any{
		"merge": true,
		"todos": []any{
			map[string]any{"id": "1", "content": "write tests", "status": "completed"},
			map[string]any{"id": "2", "content": "ship it", "status": "pending"},
		},
	}})
	require.NoError(t, err)
	assert.Contains(t, result.Output, "2 todo(s) tracked")
}

func TestTodoWriteTool_RejectsInvalidStatus(t *testing.T) {
	tt := NewTodoWriteTool()
	_, err := tt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{
		"merge": false,
		"todos": []any{
			map[string]any{"id": "1", "content": "x", "status": "bogus"},
		},
	}})
	assert.Error(t, err)
}

func TestThinkTool_AlwaysSucceeds(t *testing.T) {
	tt := NewThinkTool()
	result, err := tt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"thought": "consider the options"}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "consider the options", result.Output)
}

func TestWebFetchTool_RejectsNonHTTPURL(t *testing.T) {
	wt := NewWebFetchTool()
	_, err := wt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"url": "ftp://example.com"}})
	assert.Error(t, err)
}

func TestWebFetchTool_EnforcesDomainAllowlist(t *testing.T) {
	wt := NewWebFetchTool()
	wt.AllowedDomains = []string{"example.com"}
	_, err := wt.Call(context.Background(), task.ToolCall{ID: "1", Args: map[string]any{"url": "https://evil.example.org/"}})
	assert.Error(t, err)
}
