package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/task"
)

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string                          { return f.name }
func (f *fakeTool) Description() string                   { return "fake tool " + f.name }
func (f *fakeTool) Schema() map[string]any                { return map[string]any{"type": "object"} }
func (f *fakeTool) RiskLevel() task.RiskLevel              { return task.RiskLow }
func (f *fakeTool) ConcurrencyMode() task.ConcurrencyMode  { return task.ConcurrencyParallel }
func (f *fakeTool) Category() Category                    { return CategoryFilesystem }
func (f *fakeTool) RequiresApproval() bool                 { return false }
func (f *fakeTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	return task.ToolResult{CallID: call.ID, ToolName: f.name, Success: true}, nil
}

func TestCatalog_RegisterAndGet(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(&fakeTool{name: "read_file"}))

	got, ok := c.Get("read_file")
	require.True(t, ok)
	assert.Equal(t, "read_file", got.Name())
}

func TestCatalog_RejectsDuplicateName(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(&fakeTool{name: "bash"}))
	err := c.Register(&fakeTool{name: "bash"})
	assert.Error(t, err)
}

func TestCatalog_NamesAndSchemas(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(&fakeTool{name: "glob"}))
	require.NoError(t, c.Register(&fakeTool{name: "grep"}))

	assert.ElementsMatch(t, []string{"glob", "grep"}, c.Names())

	schemas := c.Schemas()
	require.Len(t, schemas, 2)
	for _, s := range schemas {
		assert.NotEmpty(t, s.Name)
		assert.NotNil(t, s.Parameters)
	}
}

func TestErrorKind_ToolResultKind(t *testing.T) {
	assert.Equal(t, task.ErrToolInvalidArgs, ErrInvalidArguments.ToolResultKind())
	assert.Equal(t, task.ErrPermissionDenied, ErrPermissionDenied.ToolResultKind())
	assert.Equal(t, task.ErrToolTimeout, ErrTimeout.ToolResultKind())
	assert.Equal(t, task.ErrCancelled, ErrCancelled.ToolResultKind())
	assert.Equal(t, task.ErrToolExecutionFail, ErrExecutionFailed.ToolResultKind())
	assert.Equal(t, task.ErrInternalFault, ErrInternal.ToolResultKind())
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := assert.AnError
	err := &Error{Kind: ErrExecutionFailed, Tool: "bash", Message: "exit 1", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bash")
	assert.Contains(t, err.Error(), "exit 1")
}
