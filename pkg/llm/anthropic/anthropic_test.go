package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func TestEncodeMessages_SeparatesSystemFromConversation(t *testing.T) {
	messages := []task.Message{
		{Role: task.RoleSystem, Content: "be helpful"},
		{Role: task.RoleUser, Content: "hi"},
	}

	out, system, err := encodeMessages(messages)
	require.NoError(t, err)
	assert.Equal(t, "be helpful", system)
	assert.Len(t, out, 1)
}

func TestEncodeMessages_AssistantWithToolCalls(t *testing.T) {
	messages := []task.Message{
		{
			Role:    task.RoleAssistant,
			Content: "let me check",
			ToolCalls: []task.ToolCall{
				{ID: "call_1", Name: "read_file", Args: map[string]any{"path": "a.txt"}},
			},
		},
	}

	out, _, err := encodeMessages(messages)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestEncodeMessages_RejectsUnknownRole(t *testing.T) {
	messages := []task.Message{{Role: task.Role("bogus"), Content: "x"}}
	_, _, err := encodeMessages(messages)
	assert.Error(t, err)
}

func TestTranslateStopReason(t *testing.T) {
	assert.Equal(t, llm.StopToolUse, translateStopReason("tool_use"))
	assert.Equal(t, llm.StopMaxTokens, translateStopReason("max_tokens"))
	assert.Equal(t, llm.StopEndTurn, translateStopReason("end_turn"))
	assert.Equal(t, llm.StopOther, translateStopReason("something_new"))
}

func TestComplete_TranslatesTextAndUsage(t *testing.T) {
	p := &Provider{model: "claude-x", maxTokens: 100, temperature: 1}
	msg := &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "hello there"},
		},
		StopReason: "end_turn",
		Usage:      sdk.Usage{InputTokens: 10, OutputTokens: 5},
	}
	result := translateMessage(msg)

	assert.Equal(t, "hello there", result.Text)
	assert.Equal(t, 10, result.Usage.InputTokens)
	assert.Equal(t, 5, result.Usage.OutputTokens)
	assert.Equal(t, llm.StopEndTurn, result.StopKind)
}

func TestNew_RequiresAPIKeyAndModel(t *testing.T) {
	_, err := New(llm.Config{Model: "x"})
	assert.Error(t, err)

	_, err = New(llm.Config{APIKey: "k"})
	assert.Error(t, err)
}
