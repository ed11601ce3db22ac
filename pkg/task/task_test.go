package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecution_AssemblesInitialMessages(t *testing.T) {
	tk := NewTask("do the thing")
	exec := NewExecution(tk, "you are an assistant")

	require.Len(t, exec.Messages, 2)
	assert.Equal(t, RoleSystem, exec.Messages[0].Role)
	assert.Equal(t, RoleUser, exec.Messages[1].Role)
	assert.Equal(t, "do the thing", exec.Messages[1].Content)
}

func TestNewExecution_NoSystemPrompt(t *testing.T) {
	tk := NewTask("hi")
	exec := NewExecution(tk, "")
	require.Len(t, exec.Messages, 1)
	assert.Equal(t, RoleUser, exec.Messages[0].Role)
}

func TestAppendStep_OrdinalsAreContiguous(t *testing.T) {
	exec := NewExecution(NewTask("x"), "")
	exec.AppendStep(Step{TokensIn: 1, TokensOut: 2})
	exec.AppendStep(Step{TokensIn: 3, TokensOut: 4})

	require.Len(t, exec.Steps, 2)
	assert.Equal(t, 0, exec.Steps[0].Index)
	assert.Equal(t, 1, exec.Steps[1].Index)
	assert.Equal(t, 4, exec.Usage.InputTokens)
	assert.Equal(t, 6, exec.Usage.OutputTokens)
}

func TestRiskLevel_Ordering(t *testing.T) {
	assert.True(t, RiskLow < RiskMedium)
	assert.True(t, RiskMedium < RiskHigh)
	assert.True(t, RiskHigh < RiskCritical)
}

func TestParseRiskLevel_UnknownDefaultsMedium(t *testing.T) {
	assert.Equal(t, RiskMedium, ParseRiskLevel("bogus"))
	assert.Equal(t, RiskCritical, ParseRiskLevel("critical"))
}

func TestFinish_SetsOutcomeAndEndTime(t *testing.T) {
	exec := NewExecution(NewTask("x"), "")
	exec.Finish(OutcomeSuccess)
	assert.Equal(t, OutcomeSuccess, exec.Outcome)
	assert.False(t, exec.EndedAt.IsZero())
}

func TestFinishError_RecordsKindAndMessage(t *testing.T) {
	exec := NewExecution(NewTask("x"), "")
	exec.FinishError(ErrProviderPermanent, "bad request")
	assert.Equal(t, OutcomeFailed, exec.Outcome)
	assert.Equal(t, ErrProviderPermanent, exec.ErrorKind)
	assert.Equal(t, "bad request", exec.ErrorMsg)
}
