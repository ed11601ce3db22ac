package openai

import (
	"testing"

	sdk "github.com/sashabaranov/go-openai"
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
				{ID: "call_1", Name: "grep", Args: map[string]any{"pattern": "TODO"}},
			},
		},
		{Role: task.RoleTool, Content: "no matches", ToolCallID: "call_1"},
	}

	out, err := encodeMessages(messages)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, sdk.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, sdk.ChatMessageRoleTool, out[3].Role)
	assert.Equal(t, "call_1", out[3].ToolCallID)
	require.Len(t, out[2].ToolCalls, 1)
	assert.Equal(t, "grep", out[2].ToolCalls[0].Function.Name)
}

func TestEncodeMessages_RejectsUnknownRole(t *testing.T) {
	_, err := encodeMessages([]task.Message{{Role: task.Role("bogus")}})
	assert.Error(t, err)
}

func TestTranslateResponse_MapsTextToolCallsAndUsage(t *testing.T) {
	resp := sdk.ChatCompletionResponse{
		Choices: []sdk.ChatCompletionChoice{
			{
				Message: sdk.ChatCompletionMessage{
					Content: "done",
					ToolCalls: []sdk.ToolCall{
						{ID: "c1", Function: sdk.FunctionCall{Name: "bash", Arguments: `{"cmd":"ls"}`}},
					},
				},
				FinishReason: "tool_calls",
			},
		},
		Usage: sdk.Usage{PromptTokens: 20, CompletionTokens: 8},
	}

	result := translateResponse(resp)
	assert.Equal(t, "done", result.Text)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "bash", result.ToolCalls[0].Name)
	assert.Equal(t, "ls", result.ToolCalls[0].Args["cmd"])
	assert.Equal(t, llm.StopToolUse, result.StopKind)
	assert.Equal(t, 20, result.Usage.InputTokens)
	assert.Equal(t, 8, result.Usage.OutputTokens)
}

func TestParseArguments_FallsBackOnInvalidJSON(t *testing.T) {
	assert.Nil(t, parseArguments(""))
	assert.Equal(t, map[string]any{"_raw": "not json"}, parseArguments("not json"))
}

func TestTranslateFinishReason(t *testing.T) {
	assert.Equal(t, llm.StopMaxTokens, translateFinishReason("length"))
	assert.Equal(t, llm.StopEndTurn, translateFinishReason("stop"))
	assert.Equal(t, llm.StopOther, translateFinishReason("content_filter"))
}

func TestNew_RequiresAPIKeyAndModel(t *testing.T) {
	_, err := New(llm.Config{Model: "gpt-4o"})
	assert.Error(t, err)

	_, err = New(llm.Config{APIKey: "k"})
	assert.Error(t, err)
}
