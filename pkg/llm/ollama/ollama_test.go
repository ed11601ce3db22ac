package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func TestEncodeMessages_MapsRolesAndToolCalls(t *testing.T) {
	messages := []task.Message{
		{Role: task.RoleSystem, Content: "be terse"},
		{Role: task.RoleUser, Content: "hi"},
		{
			Role: task.RoleAssistant,
			ToolCalls: []task.ToolCall{
				{ID: "c1", Name: "glob", Args: map[string]any{"pattern": "*.go"}},
			},
		},
		{Role: task.RoleTool, Content: "no matches", ToolCallID: "c1"},
	}

	out := encodeMessages(messages)
	require.Len(t, out, 4)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "tool", out[3].Role)
	assert.Equal(t, "c1", out[3].ToolName)
	require.Len(t, out[2].ToolCalls, 1)
	assert.Equal(t, "glob", out[2].ToolCalls[0].Function.Name)
}

func TestEncodeTools_MapsNameDescriptionParameters(t *testing.T) {
	defs := []llm.ToolDefinition{
		{Name: "bash", Description: "run a command", Parameters: map[string]any{"type": "object"}},
	}
	out := encodeTools(defs)
	require.Len(t, out, 1)
	assert.Equal(t, "function", out[0].Type)
	assert.Equal(t, "bash", out[0].Function.Name)
	assert.Equal(t, "run a command", out[0].Function.Description)
}

func TestTranslateResponse_MapsTextToolCallsAndUsage(t *testing.T) {
	resp := &chatResponse{
		Message: &chatMessage{
			Content: "done",
			ToolCalls: []toolCall{
				{Function: functionCall{Name: "bash", Arguments: map[string]any{"cmd": "ls"}}},
			},
		},
		PromptEvalCount: 12,
		EvalCount:       4,
	}

	result := translateResponse(resp)
	assert.Equal(t, "done", result.Text)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "bash", result.ToolCalls[0].Name)
	assert.Equal(t, "ls", result.ToolCalls[0].Args["cmd"])
	assert.Equal(t, llm.StopToolUse, result.StopKind)
	assert.Equal(t, 12, result.Usage.InputTokens)
	assert.Equal(t, 4, result.Usage.OutputTokens)
}

func TestTranslateResponse_NoMessageYieldsEmptyResult(t *testing.T) {
	result := translateResponse(&chatResponse{Done: true})
	assert.Equal(t, "", result.Text)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, llm.StopEndTurn, result.StopKind)
}

func TestHandleLine_AccumulatesTextAndFlushesToolCallsOnDone(t *testing.T) {
	pending := map[int]*task.ToolCall{}
	var chunks []llm.StreamChunk
	emit := func(c llm.StreamChunk) bool {
		chunks = append(chunks, c)
		return true
	}

	stop := handleLine([]byte(`{"message":{"role":"assistant","content":"hel"},"done":false}`+"\n"), pending, emit)
	assert.False(t, stop)
	stop = handleLine([]byte(`{"message":{"role":"assistant","content":"lo"},"done":false}`+"\n"), pending, emit)
	assert.False(t, stop)
	stop = handleLine([]byte(`{"done":true,"prompt_eval_count":5,"eval_count":2}`+"\n"), pending, emit)
	assert.True(t, stop)

	require.Len(t, chunks, 4)
	assert.Equal(t, llm.ChunkText, chunks[0].Kind)
	assert.Equal(t, "hel", chunks[0].Text)
	assert.Equal(t, llm.ChunkText, chunks[1].Kind)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, llm.ChunkUsage, chunks[2].Kind)
	assert.Equal(t, llm.ChunkDone, chunks[3].Kind)
}

func TestHandleLine_IgnoresBlankAndMalformedLines(t *testing.T) {
	pending := map[int]*task.ToolCall{}
	called := false
	emit := func(llm.StreamChunk) bool { called = true; return true }

	assert.False(t, handleLine([]byte("\n"), pending, emit))
	assert.False(t, handleLine([]byte("not json\n"), pending, emit))
	assert.False(t, called)
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(llm.Config{})
	assert.Error(t, err)
}

func TestNew_DefaultsBaseURL(t *testing.T) {
	p, err := New(llm.Config{Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, p.baseURL)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "llama3", p.Model())
}

func TestNew_CustomBaseURL(t *testing.T) {
	p, err := New(llm.Config{Model: "llama3", BaseURL: "http://example.internal:11434"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.internal:11434", p.baseURL)
}
