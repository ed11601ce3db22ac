package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func TestBuildContents_SeparatesSystemInstruction(t *testing.T) {
	messages := []task.Message{
		{Role: task.RoleSystem, Content: "be concise"},
		{Role: task.RoleUser, Content: "hello"},
	}
	contents, system := buildContents(messages)

	require.NotNil(t, system)
	assert.Equal(t, "be concise", system.Parts[0].Text)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
}

func TestBuildContents_AssistantToolCallBecomesFunctionCallPart(t *testing.T) {
	messages := []task.Message{
		{
			Role: task.RoleAssistant,
			ToolCalls: []task.ToolCall{
				{ID: "c1", Name: "search", Args: map[string]any{"q": "go"}},
			},
		},
	}
	contents, _ := buildContents(messages)
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "search", contents[0].Parts[0].FunctionCall.Name)
}

func TestToGenaiSchema_ConvertsNestedObject(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
		},
		"required": []any{"path"},
	}
	s := toGenaiSchema(schema)
	require.NotNil(t, s)
	assert.Equal(t, genai.Type("object"), s.Type)
	assert.Contains(t, s.Properties, "path")
	assert.Equal(t, []string{"path"}, s.Required)
}

func TestStableCallID_IsDeterministic(t *testing.T) {
	args := map[string]any{"q": "go"}
	a := stableCallID("search", args)
	b := stableCallID("search", args)
	assert.Equal(t, a, b)

	c := stableCallID("search", map[string]any{"q": "rust"})
	assert.NotEqual(t, a, c)
}

func TestTranslateResponse_EmptyCandidates(t *testing.T) {
	result := translateResponse(&genai.GenerateContentResponse{})
	assert.Equal(t, "", result.Text)
	assert.Empty(t, result.ToolCalls)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(llm.Config{})
	assert.Error(t, err)
}
