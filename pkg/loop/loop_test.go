package loop

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/cancel"
	"github.com/sagerun/sage-core/pkg/executor"
	"github.com/sagerun/sage-core/pkg/hooks"
	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
	"github.com/sagerun/sage-core/pkg/trajectory"
)

// fakeProvider answers Complete calls from a caller-supplied sequence,
// repeating the last entry once exhausted.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	sequence []func(call int) (llm.Result, error)
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-model" }

func (p *fakeProvider) Complete(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (llm.Result, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()
	idx := n - 1
	if idx >= len(p.sequence) {
		idx = len(p.sequence) - 1
	}
	return p.sequence[idx](n)
}

func (p *fakeProvider) Stream(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("fakeProvider: streaming not exercised by these tests")
}

// fakeTool is a minimal tool.CallableTool test double.
type fakeTool struct {
	name   string
	output string
}

func (t fakeTool) Name() string                         { return t.name }
func (t fakeTool) Description() string                  { return "" }
func (t fakeTool) Schema() map[string]any                { return nil }
func (t fakeTool) RiskLevel() task.RiskLevel             { return task.RiskLow }
func (t fakeTool) ConcurrencyMode() task.ConcurrencyMode { return task.ConcurrencyParallel }
func (t fakeTool) Category() tool.Category               { return tool.CategoryTaskMgmt }
func (t fakeTool) RequiresApproval() bool                { return false }

func (t fakeTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: true, Output: t.output}, nil
}

func newTestLoop(t *testing.T, provider llm.Provider, extra func(*Config)) *Loop {
	t.Helper()
	catalog := tool.NewCatalog()
	require.NoError(t, catalog.Register(fakeTool{name: "task_done", output: "ok"}))
	exec := executor.New(catalog, executor.Config{})

	cfg := Config{
		Provider: provider,
		Catalog:  catalog,
		Executor: exec,
	}
	if extra != nil {
		extra(&cfg)
	}
	return New(cfg)
}

func textResult(text string) func(int) (llm.Result, error) {
	return func(int) (llm.Result, error) { return llm.Result{Text: text}, nil }
}

func toolCallResult(name string) func(int) (llm.Result, error) {
	return func(n int) (llm.Result, error) {
		return llm.Result{ToolCalls: []task.ToolCall{{ID: "call-1", Name: name, Args: map[string]any{}}}}, nil
	}
}

func TestLoop_CompletesAfterTaskDoneSentinel(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){
		toolCallResult("task_done"),
		textResult("all done"),
	}}
	l := newTestLoop(t, provider, nil)

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("finish the thing"))

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, task.OutcomeSuccess, outcome.Execution.Outcome)
	assert.Empty(t, outcome.Execution.Warning)
	require.Len(t, outcome.Execution.Steps, 2)
	assert.True(t, outcome.Execution.Steps[0].ToolResults[0].Success)
}

func TestLoop_MaxStepsReachedBeforeCompletion(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){
		toolCallResult("task_done"),
		toolCallResult("task_done"),
		toolCallResult("task_done"),
	}}
	maxSteps := 1
	l := newTestLoop(t, provider, func(c *Config) { c.MaxSteps = &maxSteps })

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))

	assert.Equal(t, StateMaxStepsReached, outcome.State)
	assert.Equal(t, task.OutcomeMaxStepsReached, outcome.Execution.Outcome)
	assert.Len(t, outcome.Execution.Steps, 1)
}

func TestLoop_PermanentLLMErrorEndsInError(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){
		func(int) (llm.Result, error) { return llm.Result{}, errors.New("401 unauthorized: invalid api key") },
	}}
	l := newTestLoop(t, provider, nil)

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))

	assert.Equal(t, StateError, outcome.State)
	assert.Equal(t, task.OutcomeFailed, outcome.Execution.Outcome)
	assert.Equal(t, task.ErrProviderPermanent, outcome.Execution.ErrorKind)
}

func TestLoop_StrictModeWarnsWithoutMutatingTool(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){
		textResult("nothing to do"),
	}}
	l := newTestLoop(t, provider, func(c *Config) {
		c.StrictMode = true
		c.MutatingTools = map[string]bool{"write_file": true}
	})

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, task.OutcomeSuccess, outcome.Execution.Outcome)
	assert.NotEmpty(t, outcome.Execution.Warning)
}

func TestLoop_CancelledBeforeExecuteNeverCallsProvider(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){textResult("unreachable")}}
	l := newTestLoop(t, provider, nil)

	root := cancel.NewRoot()
	root.Cancel(errors.New("cancelled by caller"))

	outcome := l.Execute(root, task.NewTask("x"))

	assert.Equal(t, StateCancelled, outcome.State)
	assert.Equal(t, task.OutcomeCancelled, outcome.Execution.Outcome)
	assert.Equal(t, 0, provider.calls)
}

// readTrajectoryKinds opens the single .jsonl file written under dir and
// returns the Kind of every record in file order.
func readTrajectoryKinds(t *testing.T, dir string) []trajectory.Kind {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	var kinds []trajectory.Kind
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec trajectory.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		kinds = append(kinds, rec.Kind)
	}
	require.NoError(t, scanner.Err())
	return kinds
}

func TestLoop_TrajectoryOrderingWithoutToolCalls(t *testing.T) {
	dir := t.TempDir()
	writer, err := trajectory.NewWriter(dir, "exec-1", trajectory.RotationPolicy{}, nil)
	require.NoError(t, err)
	defer writer.Close()

	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){textResult("done")}}
	l := newTestLoop(t, provider, func(c *Config) { c.Trajectory = writer })

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))
	require.Equal(t, StateCompleted, outcome.State)

	kinds := readTrajectoryKinds(t, dir)
	assert.Equal(t, []trajectory.Kind{
		trajectory.KindExecutionStart,
		trajectory.KindStepStart,
		trajectory.KindLLMRequest,
		trajectory.KindLLMResponse,
		trajectory.KindStepComplete,
		trajectory.KindExecutionEnd,
	}, kinds)
}

func TestLoop_TrajectoryOrderingWithToolCalls(t *testing.T) {
	dir := t.TempDir()
	writer, err := trajectory.NewWriter(dir, "exec-2", trajectory.RotationPolicy{}, nil)
	require.NoError(t, err)
	defer writer.Close()

	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){
		toolCallResult("task_done"),
		textResult("all done"),
	}}
	l := newTestLoop(t, provider, func(c *Config) { c.Trajectory = writer })

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))
	require.Equal(t, StateCompleted, outcome.State)

	kinds := readTrajectoryKinds(t, dir)
	assert.Equal(t, []trajectory.Kind{
		trajectory.KindExecutionStart,
		trajectory.KindStepStart,
		trajectory.KindLLMRequest,
		trajectory.KindLLMResponse,
		trajectory.KindToolCall,
		trajectory.KindToolResult,
		trajectory.KindStepComplete,
		trajectory.KindStepStart,
		trajectory.KindLLMRequest,
		trajectory.KindLLMResponse,
		trajectory.KindStepComplete,
		trajectory.KindExecutionEnd,
	}, kinds)
}

func TestLoop_HookAbortAtStepStartEndsInError(t *testing.T) {
	provider := &fakeProvider{sequence: []func(int) (llm.Result, error){textResult("unreachable")}}
	registry := hooks.New(0)
	registry.Register(hooks.FuncHook{
		HookName:   "deny-step-start",
		HookPhases: []hooks.Phase{hooks.PhaseStepStart},
		Fn: func(ctx context.Context, fire hooks.FireContext) (hooks.Outcome, error) {
			return hooks.Outcome{Decision: hooks.Abort, Reason: "policy"}, nil
		},
	})
	l := newTestLoop(t, provider, func(c *Config) { c.Hooks = registry })

	outcome := l.Execute(cancel.NewRoot(), task.NewTask("x"))

	assert.Equal(t, StateError, outcome.State)
	assert.Equal(t, task.OutcomeFailed, outcome.Execution.Outcome)
	assert.Equal(t, 0, provider.calls)
}
