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

// Package loop implements the Reactive Loop: the state machine that drives
// one Execution from task ingestion to a terminal Outcome, alternating
// Thinking (LLM calls) and ToolExecution (the Parallel Executor) until the
// completion predicate is satisfied, the step cap is hit, the execution is
// cancelled, or an unrecoverable error occurs.
//
// Grounded on other_examples' dagu-org/dagu agent.Loop (Go/idleTimer-driven
// loop, sendRequest/handleToolCalls/executeToolCalls shape, iterative
// rather than recursive tool-call handling to avoid stack growth on long
// chains) generalized from dagu's single always-sequential tool execution
// and untyped retry onto this module's own pkg/executor (concurrency-mode
// aware, hook-gated) and pkg/retry (classified backoff) components, with
// the state machine and completion predicate built directly from spec
// §4.1 since dagu's loop has no explicit state enum or completion rule of
// its own — it runs until the model stops requesting tools.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/sagerun/sage-core/pkg/cancel"
	"github.com/sagerun/sage-core/pkg/executor"
	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/hooks"
	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/retry"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
	"github.com/sagerun/sage-core/pkg/trajectory"
)

// Config assembles the collaborators one Loop drives a single Execution
// with. Per spec's "Shared-resource policy," a Config's Executor and
// Catalog are read-only after construction and may be shared across
// concurrent Loops; Trajectory is single-producer and must not be shared
// across concurrently running executions.
type Config struct {
	Provider   llm.Provider
	Catalog    *tool.Catalog
	Executor   *executor.Executor
	Hooks      *hooks.Registry
	Trajectory *trajectory.Writer
	Bus        *eventbus.Bus

	SystemPrompt string
	MaxSteps     *int // nil = unbounded

	// StrictMode requires at least one mutating-tool call before the
	// completion predicate is satisfied without a task_done sentinel; see
	// spec §4.1's "completed with warning" clause.
	StrictMode    bool
	MutatingTools map[string]bool

	// StepTimeout bounds each tool-execution batch, forwarded to the
	// executor as its remaining-budget ceiling.
	StepTimeout time.Duration

	// LLMRetry configures the Thinking phase's bounded-retry policy. A
	// zero Classify defaults to classifyLLMError.
	LLMRetry retry.Policy

	Session string
}

func (c Config) withDefaults() Config {
	if c.StepTimeout <= 0 {
		c.StepTimeout = 5 * time.Minute
	}
	if c.LLMRetry.MaxAttempts == 0 {
		c.LLMRetry.MaxAttempts = 3
	}
	if c.LLMRetry.Classify == nil {
		c.LLMRetry.Classify = classifyLLMError
	}
	return c
}

// Loop drives one Execution at a time; construct one per concurrently
// running Execution (sharing the read-only Catalog/Executor is fine, but
// do not call Execute concurrently on the same Loop value with the same
// Trajectory writer).
type Loop struct {
	cfg Config
}

func New(cfg Config) *Loop {
	return &Loop{cfg: cfg.withDefaults()}
}

// Execute drives t from Initializing to a terminal Outcome. root is the
// execution's cancellation token; Execute observes it between every major
// phase and during tool waits, per spec §5's suspension-point rule.
func (l *Loop) Execute(root *cancel.Token, t task.Task) Outcome {
	ctx := root.Context()
	exec := task.NewExecution(t, l.cfg.SystemPrompt)

	fire := hooks.FireContext{Phase: hooks.PhaseInit, ExecutionID: exec.ID, Session: l.cfg.Session}
	if state, ok := l.fireOrAbort(ctx, hooks.PhaseInit, &fire, exec); !ok {
		return Outcome{Execution: exec, State: state}
	}

	defer l.runShutdown(exec)

	l.appendTrajectory(ctx, trajectory.KindExecutionStart, map[string]any{
		"task_id": t.ID, "prompt": t.Prompt, "working_dir": t.WorkingDir,
	})

	fire.Phase = hooks.PhaseTaskStart
	if state, ok := l.fireOrAbort(ctx, hooks.PhaseTaskStart, &fire, exec); !ok {
		return l.finish(ctx, exec, state, fire)
	}

	maxSteps := -1
	if l.cfg.MaxSteps != nil {
		maxSteps = *l.cfg.MaxSteps
	}

	state := StateThinking
	for {
		if root.IsCancelled() {
			exec.Finish(task.OutcomeCancelled)
			state = StateCancelled
			break
		}
		if maxSteps >= 0 && len(exec.Steps) >= maxSteps {
			exec.Finish(task.OutcomeMaxStepsReached)
			state = StateMaxStepsReached
			break
		}

		fire.Phase = hooks.PhaseStepStart
		fire.StepIndex = len(exec.Steps)
		if s, ok := l.fireOrAbort(ctx, hooks.PhaseStepStart, &fire, exec); !ok {
			state = s
			break
		}

		l.appendTrajectory(ctx, trajectory.KindStepStart, map[string]any{"index": fire.StepIndex})

		fire.Phase = hooks.PhasePrePromptSubmit
		if s, ok := l.fireOrAbort(ctx, hooks.PhasePrePromptSubmit, &fire, exec); !ok {
			state = s
			break
		}

		stepStarted := time.Now()
		defs := buildToolDefinitions(l.cfg.Catalog)
		l.appendTrajectory(ctx, trajectory.KindLLMRequest, map[string]any{
			"message_count": len(exec.Messages), "tool_count": len(defs),
		})
		result, err := l.think(ctx, exec, defs)
		if err != nil {
			kind := task.ErrProviderTransient
			if classifyLLMError(err) == retry.Permanent {
				kind = task.ErrProviderPermanent
			}
			exec.FinishError(kind, err.Error())
			l.fireErrorPhase(exec, err)
			state = StateError
			break
		}

		l.appendTrajectory(ctx, trajectory.KindLLMResponse, map[string]any{
			"role": "assistant", "content": result.Text, "tool_call_count": len(result.ToolCalls),
			"stop_kind": result.StopKind, "tokens_in": result.Usage.InputTokens, "tokens_out": result.Usage.OutputTokens,
		})

		step := task.Step{
			Assistant: task.Message{Role: task.RoleAssistant, Content: result.Text, ToolCalls: result.ToolCalls},
			TokensIn:  result.Usage.InputTokens,
			TokensOut: result.Usage.OutputTokens,
		}
		exec.Messages = append(exec.Messages, step.Assistant)

		if len(result.ToolCalls) == 0 {
			exec.Warning = l.evaluateCompletion(exec)
			step.Elapsed = time.Since(stepStarted)
			exec.AppendStep(step)
			exec.Finish(task.OutcomeSuccess)
			state = StateCompleted
			l.appendTrajectory(ctx, trajectory.KindStepComplete, map[string]any{"index": fire.StepIndex, "tool_call_count": 0})
			fire.Phase = hooks.PhaseStepComplete
			fire.Extra = map[string]any{"execution": exec}
			l.fireNotify(fire)
			break
		}

		state = StateToolExecution
		l.appendTrajectory(ctx, trajectory.KindToolCall, result.ToolCalls)

		batchToken := root.Child()
		results := l.cfg.Executor.Run(ctx, batchToken, result.ToolCalls, t.WorkingDir, l.cfg.StepTimeout)
		batchToken.Cancel(nil)

		for _, tr := range results {
			exec.Messages = append(exec.Messages, task.Message{Role: task.RoleTool, Content: tr.Output, ToolCallID: tr.CallID})
			l.appendTrajectory(ctx, trajectory.KindToolResult, tr)
		}

		step.ToolCalls = result.ToolCalls
		step.ToolResults = results
		step.Elapsed = time.Since(stepStarted)
		exec.AppendStep(step)

		l.appendTrajectory(ctx, trajectory.KindStepComplete, map[string]any{
			"index": fire.StepIndex, "tool_call_count": len(result.ToolCalls),
		})

		fire.Phase = hooks.PhaseStepComplete
		fire.Extra = map[string]any{"execution": exec}
		if s, ok := l.fireOrAbort(ctx, hooks.PhaseStepComplete, &fire, exec); !ok {
			state = s
			break
		}

		state = StateThinking
	}

	return l.finish(ctx, exec, state, fire)
}

func (l *Loop) finish(ctx context.Context, exec *task.Execution, state State, fire hooks.FireContext) Outcome {
	if state == StateCompleted {
		fire.Phase = hooks.PhaseTaskComplete
		l.fireNotify(fire)
	}
	l.appendTrajectory(ctx, trajectory.KindExecutionEnd, map[string]any{
		"outcome": exec.Outcome, "state": state.String(), "warning": exec.Warning,
	})
	return Outcome{Execution: exec, State: state}
}

func (l *Loop) think(ctx context.Context, exec *task.Execution, defs []llm.ToolDefinition) (llm.Result, error) {
	return retry.Do(ctx, l.cfg.LLMRetry, func(ctx context.Context) (llm.Result, error) {
		return l.cfg.Provider.Complete(ctx, exec.Messages, defs)
	})
}

func buildToolDefinitions(catalog *tool.Catalog) []llm.ToolDefinition {
	if catalog == nil {
		return nil
	}
	tools := catalog.List()
	defs := make([]llm.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llm.ToolDefinition{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()})
	}
	return defs
}

func (l *Loop) evaluateCompletion(exec *task.Execution) string {
	if hasTaskDoneResult(exec) {
		return ""
	}
	if l.cfg.StrictMode && !hasFileMutatingToolRun(exec, l.cfg.MutatingTools) {
		return "completed with warning: strict mode requires a file-mutating tool to have run"
	}
	return ""
}

// fireOrAbort fires phase and reports whether the loop may continue. A
// hook Abort decision or error finalizes exec as Error and returns false;
// the caller is responsible for breaking out of its loop. *fire is
// replaced with whatever ModifyContext produced so later phases see it.
func (l *Loop) fireOrAbort(ctx context.Context, phase hooks.Phase, fire *hooks.FireContext, exec *task.Execution) (State, bool) {
	if l.cfg.Hooks == nil {
		return StateThinking, true
	}
	decision, next, err := l.cfg.Hooks.Fire(ctx, phase, *fire)
	*fire = next
	if err != nil {
		exec.FinishError(task.ErrInternalFault, fmt.Sprintf("%s hook: %v", phase, err))
		return StateError, false
	}
	if decision == hooks.Abort {
		exec.FinishError(task.ErrInternalFault, fmt.Sprintf("%s hook aborted", phase))
		return StateError, false
	}
	return StateThinking, true
}

// fireNotify fires an informational phase whose outcome cannot alter the
// loop's already-decided terminal state (TaskComplete, StepComplete after
// a completed run).
func (l *Loop) fireNotify(fire hooks.FireContext) {
	if l.cfg.Hooks == nil {
		return
	}
	_, _, _ = l.cfg.Hooks.Fire(context.Background(), fire.Phase, fire)
}

func (l *Loop) fireErrorPhase(exec *task.Execution, cause error) {
	if l.cfg.Hooks == nil {
		return
	}
	_, _, _ = l.cfg.Hooks.Fire(context.Background(), hooks.PhaseError, hooks.FireContext{
		Phase: hooks.PhaseError, ExecutionID: exec.ID, Session: l.cfg.Session, Err: cause,
		Extra: map[string]any{"execution": exec},
	})
}

// runShutdown always fires on_shutdown, even on cancellation, using a
// fresh context since ctx may already be done — each hook is still bounded
// by the registry's own per-hook deadline.
func (l *Loop) runShutdown(exec *task.Execution) {
	if l.cfg.Hooks == nil {
		return
	}
	_, _, _ = l.cfg.Hooks.Fire(context.Background(), hooks.PhaseShutdown, hooks.FireContext{
		Phase: hooks.PhaseShutdown, ExecutionID: exec.ID, Session: l.cfg.Session,
	})
}

func (l *Loop) appendTrajectory(ctx context.Context, kind trajectory.Kind, data any) {
	if l.cfg.Trajectory == nil {
		return
	}
	_ = l.cfg.Trajectory.Append(ctx, kind, data)
}
