package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/hooks"
	"github.com/sagerun/sage-core/pkg/task"
)

func enabledConfig() *Config {
	enabled := true
	return &Config{Enabled: &enabled}
}

func TestConfig_SetDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.False(t, c.IsEnabled())
	assert.Equal(t, StrategyEvent, c.Strategy)
	assert.Equal(t, time.Hour, c.RecoveryTimeout())
}

func TestConfig_Validate(t *testing.T) {
	c := &Config{Strategy: "bogus"}
	assert.Error(t, c.Validate())

	c = &Config{Interval: -1}
	assert.Error(t, c.Validate())

	c = &Config{Strategy: StrategyHybrid, Interval: 5}
	assert.NoError(t, c.Validate())
}

func TestConfig_ShouldCheckpointAtStep(t *testing.T) {
	enabled := true
	c := &Config{Enabled: &enabled, Strategy: StrategyInterval, Interval: 3}
	assert.False(t, c.ShouldCheckpointAtStep(0))
	assert.False(t, c.ShouldCheckpointAtStep(2))
	assert.True(t, c.ShouldCheckpointAtStep(3))
	assert.True(t, c.ShouldCheckpointAtStep(6))
}

func TestState_SerializeDeserializeRoundTrip(t *testing.T) {
	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "do the thing"}, "system prompt")
	exec.AppendStep(task.Step{Assistant: task.Message{Role: task.RoleAssistant, Content: "ok"}, TokensIn: 10, TokensOut: 5})

	s := Snapshot(exec, PhaseStepComplete, TypeEvent)
	data, err := s.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, restored.ExecutionID)
	assert.Equal(t, "t1", restored.TaskID)
	assert.Len(t, restored.Steps, 1)
	assert.Equal(t, 10, restored.Usage.InputTokens)
}

func TestState_Resume(t *testing.T) {
	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "hello"}, "sys")
	exec.AppendStep(task.Step{Assistant: task.Message{Role: task.RoleAssistant, Content: "step1"}, TokensIn: 3, TokensOut: 2})
	s := Snapshot(exec, PhaseStepComplete, TypeEvent)

	resumed := s.Resume("sys")
	assert.NotEqual(t, exec.ID, resumed.ID, "resume assigns a fresh execution id")
	assert.Equal(t, "t1", resumed.Task.ID)
	assert.Len(t, resumed.Steps, 1)
	assert.Equal(t, 3, resumed.Usage.InputTokens)
}

func TestState_IsExpired(t *testing.T) {
	s := &State{CheckpointTime: time.Now().Add(-2 * time.Hour)}
	assert.True(t, s.IsExpired(time.Hour))
	assert.False(t, s.IsExpired(0))

	fresh := &State{CheckpointTime: time.Now()}
	assert.False(t, fresh.IsExpired(time.Hour))
}

func TestStorage_SaveLoadClear(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	ctx := context.Background()
	s := &State{ExecutionID: "exec-1", TaskID: "t1", CheckpointTime: time.Now()}
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "exec-1", loaded.ExecutionID)

	require.NoError(t, store.Clear(ctx, "exec-1"))
	_, err = store.Load(ctx, "exec-1")
	assert.Error(t, err)
}

func TestStorage_SaveOverwritesPriorCheckpoint(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &State{ExecutionID: "exec-1", Phase: PhasePreLLM}))
	require.NoError(t, store.Save(ctx, &State{ExecutionID: "exec-1", Phase: PhaseStepComplete}))

	loaded, err := store.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseStepComplete, loaded.Phase)
}

func TestStorage_ListPendingSortedByTime(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Save(ctx, &State{ExecutionID: "later", CheckpointTime: now.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, &State{ExecutionID: "earlier", CheckpointTime: now}))

	states, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "earlier", states[0].ExecutionID)
	assert.Equal(t, "later", states[1].ExecutionID)
}

func TestManager_SaveIsNoopWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	m := NewManager(&Config{}, store, nil)
	require.NoError(t, m.Save(context.Background(), &State{ExecutionID: "x"}))

	_, err = store.Load(context.Background(), "x")
	assert.Error(t, err, "disabled manager must not write a checkpoint")
}

func TestManager_LoadRejectsExpiredCheckpoint(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	cfg := enabledConfig()
	cfg.Recovery = &RecoveryConfig{Timeout: 1}
	m := NewManager(cfg, store, nil)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &State{ExecutionID: "exec-1", CheckpointTime: time.Now().Add(-time.Hour)}))

	_, err = m.Load(ctx, "exec-1")
	require.Error(t, err)
	var expired *ExpiredError
	assert.ErrorAs(t, err, &expired)
}

func TestManager_SaveStepRespectsAfterToolsFlag(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	afterTools := true
	cfg := enabledConfig()
	cfg.AfterTools = &afterTools
	m := NewManager(cfg, store, nil)

	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "hi"}, "sys")
	exec.AppendStep(task.Step{})

	require.NoError(t, m.SaveStep(context.Background(), exec))
	loaded, err := store.Load(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, loaded.ExecutionID)
}

func TestManager_SaveStepSkipsWhenNoTriggerConfigured(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	m := NewManager(enabledConfig(), store, nil)
	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "hi"}, "sys")
	exec.AppendStep(task.Step{})

	require.NoError(t, m.SaveStep(context.Background(), exec))
	_, err = store.Load(context.Background(), exec.ID)
	assert.Error(t, err, "no after-tools/interval trigger configured means no checkpoint")
}

func TestManager_PublishesEventOnSaveFailure(t *testing.T) {
	// Point storage at a path that can never be created as a directory
	// (a file occupies that name) so Save fails deterministically.
	dir := t.TempDir()
	store := &Storage{dir: "/dev/null/impossible"}
	_ = dir

	bus := eventbus.New()
	received := make(chan eventbus.Event, 1)
	bus.Subscribe(func(ev eventbus.Event) {
		if ev.Kind == "checkpoint_save_failed" {
			received <- ev
		}
	})

	m := NewManager(enabledConfig(), store, bus)
	err := m.Save(context.Background(), &State{ExecutionID: "x"})
	require.Error(t, err)

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("expected checkpoint_save_failed event")
	}
}

func TestHook_SavesCheckpointOnStepComplete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	afterTools := true
	cfg := enabledConfig()
	cfg.AfterTools = &afterTools
	m := NewManager(cfg, store, nil)

	reg := hooks.New(time.Second)
	reg.Register(Hook(m))

	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "hi"}, "sys")
	exec.AppendStep(task.Step{})

	_, _, err = reg.Fire(context.Background(), hooks.PhaseStepComplete, hooks.FireContext{
		ExecutionID: exec.ID,
		Extra:       map[string]any{"execution": exec},
	})
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, loaded.ExecutionID)
}

func TestHook_SavesErrorCheckpoint(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	m := NewManager(enabledConfig(), store, nil)
	reg := hooks.New(time.Second)
	reg.Register(Hook(m))

	exec := task.NewExecution(task.Task{ID: "t1", Prompt: "hi"}, "sys")

	_, _, err = reg.Fire(context.Background(), hooks.PhaseError, hooks.FireContext{
		ExecutionID: exec.ID,
		Err:         assert.AnError,
		Extra:       map[string]any{"execution": exec},
	})
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseError, loaded.Phase)
	assert.Equal(t, assert.AnError.Error(), loaded.Error)
}

func TestHook_NoopWithoutExecutionInExtra(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStorage(dir)
	require.NoError(t, err)

	m := NewManager(enabledConfig(), store, nil)
	reg := hooks.New(time.Second)
	reg.Register(Hook(m))

	_, _, err = reg.Fire(context.Background(), hooks.PhaseStepComplete, hooks.FireContext{ExecutionID: "exec-1"})
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "exec-1")
	assert.Error(t, err)
}
