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

// Package hooks implements the Lifecycle Hook Registry: an ordered list of
// hooks sorted by declared priority, each subscribed to a subset of the
// loop's phases, firing in priority order with a per-hook deadline and a
// {Continue, Skip, Abort, ModifyContext} decision.
//
// Grounded on the teacher's pkg/agent.Config Before/AfterAgentCallbacks
// (a plain slice of callback functions run in order, where a non-nil
// returned message or error short-circuits the remaining callbacks),
// generalized from the teacher's two fixed phases (before-agent,
// after-agent) to the spec's full phase set and from an unconditional
// callback slice to one sorted by priority and filtered by phase
// subscription.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
)

// Phase identifies one point in the loop's lifecycle a hook can subscribe
// to.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhaseTaskStart       Phase = "task_start"
	PhaseStepStart       Phase = "step_start"
	PhaseStepComplete    Phase = "step_complete"
	PhaseTaskComplete    Phase = "task_complete"
	PhaseShutdown        Phase = "shutdown"
	PhaseStateTransition Phase = "state_transition"
	PhaseError           Phase = "error"
	PhasePreToolUse      Phase = "pre_tool_use"
	PhasePostToolUse     Phase = "post_tool_use"
	PhasePrePromptSubmit Phase = "pre_prompt_submit"
)

// Decision is the outcome a hook reports for one phase firing.
type Decision int

const (
	Continue Decision = iota
	Skip
	Abort
	ModifyContext
)

// FireContext carries whatever a phase firing needs: identifiers plus the
// phase-specific payload (ToolCall/ToolResult for PreToolUse/PostToolUse,
// StepIndex for StepStart/StepComplete, the error for Error). Hooks that
// return ModifyContext replace this value for subsequent hooks in the same
// firing and for the caller.
type FireContext struct {
	Phase       Phase
	ExecutionID string
	Session     string
	StepIndex   int
	ToolCall    *task.ToolCall
	ToolResult  *task.ToolResult
	Err         error
	Extra       map[string]any
}

// Outcome is what a single hook returns from one firing.
type Outcome struct {
	Decision Decision
	Reason   string
	Context  FireContext // only consulted when Decision == ModifyContext
}

// Hook is one lifecycle participant. Priority breaks ties among hooks
// subscribed to the same phase: higher runs first.
type Hook interface {
	Name() string
	Phases() []Phase
	Priority() int
	Handle(ctx context.Context, fire FireContext) (Outcome, error)
}

// FuncHook adapts a plain function into a Hook, mirroring the teacher's
// function-typed BeforeAgentCallback/AfterAgentCallback convention instead
// of requiring every caller to define a named type.
type FuncHook struct {
	HookName     string
	HookPhases   []Phase
	HookPriority int
	Fn           func(ctx context.Context, fire FireContext) (Outcome, error)
}

func (f FuncHook) Name() string       { return f.HookName }
func (f FuncHook) Phases() []Phase    { return f.HookPhases }
func (f FuncHook) Priority() int      { return f.HookPriority }
func (f FuncHook) Handle(ctx context.Context, fire FireContext) (Outcome, error) {
	return f.Fn(ctx, fire)
}

// Registry holds the ordered hook list and fires phases against it.
type Registry struct {
	mu       sync.RWMutex
	hooks    []Hook
	deadline time.Duration
}

// New constructs a Registry. deadline bounds every individual hook
// invocation; zero means 5 seconds.
func New(deadline time.Duration) *Registry {
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	return &Registry{deadline: deadline}
}

// Register adds h, keeping the hook list sorted by descending priority.
// Registration is safe to call concurrently with Fire: Fire iterates a
// snapshot taken under a read lock, so an in-flight firing never observes
// a torn insert, and a new hook added mid-firing simply isn't part of that
// firing's snapshot.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
	sort.SliceStable(r.hooks, func(i, j int) bool { return r.hooks[i].Priority() > r.hooks[j].Priority() })
}

func (r *Registry) snapshot(phase Phase) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		for _, p := range h.Phases() {
			if p == phase {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

// Fire runs every hook subscribed to phase, in priority order, each bound
// by the registry's per-hook deadline. It returns the (possibly modified)
// FireContext and the terminal decision: Abort if any hook aborted, Skip
// if a hook asked to stop this phase early, otherwise Continue.
func (r *Registry) Fire(ctx context.Context, phase Phase, fire FireContext) (Decision, FireContext, error) {
	fire.Phase = phase
	for _, h := range r.snapshot(phase) {
		hctx, cancel := context.WithTimeout(ctx, r.deadline)
		outcome, err := h.Handle(hctx, fire)
		cancel()
		if err != nil {
			return Abort, fire, fmt.Errorf("hook %q: %w", h.Name(), err)
		}
		switch outcome.Decision {
		case Abort:
			reason := outcome.Reason
			if reason == "" {
				reason = "no reason given"
			}
			return Abort, fire, fmt.Errorf("hook %q aborted phase %s: %s", h.Name(), phase, reason)
		case Skip:
			return Skip, fire, nil
		case ModifyContext:
			fire = outcome.Context
			fire.Phase = phase
		}
	}
	return Continue, fire, nil
}
