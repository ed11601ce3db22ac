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

// Package executor implements the Parallel Executor: given a batch of
// task.ToolCalls, it dispatches them under the batch's effective
// concurrency mode, consulting the Permission Gate, validating arguments
// against each tool's schema, and bounding each call by a timeout racing
// its own cancellation token.
//
// Grounded on the teacher's pkg/agent/workflowagent/parallel.go, which
// fans concurrent sub-agent runs out with golang.org/x/sync/errgroup and
// collects results through a channel read back in submission order; this
// package generalizes that shape from sub-agents to tool calls, adds the
// per-tool-name exclusive semaphore ExclusiveByType needs, and adds the
// fixed global-before-per-type acquire order the spec requires to avoid
// deadlock.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sagerun/sage-core/pkg/cancel"
	"github.com/sagerun/sage-core/pkg/permission"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// HookRunner is the subset of the (separately built) hook registry the
// executor needs: firing PreToolUse before a call and PostToolUse after.
// Defined here, not imported from pkg/hooks, so this package has no
// compile-time dependency on a sibling package that evolves independently;
// a nil HookRunner is treated as "no hooks configured."
type HookRunner interface {
	PreToolUse(ctx context.Context, call task.ToolCall) (Decision, task.ToolCall)
	PostToolUse(ctx context.Context, call task.ToolCall, result task.ToolResult) (Decision, task.ToolResult)
}

// Decision is the outcome a hook reports for one phase firing.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionSkip
	DecisionAbort
)

// Config configures an Executor.
type Config struct {
	// GlobalLimit bounds how many calls may run concurrently regardless of
	// mode, including ExclusiveByType and Limited(n) calls.
	GlobalLimit int64
	// PerCallTimeout bounds a single tool.execute when the step has no
	// tighter remaining budget.
	PerCallTimeout time.Duration
	Gate           *permission.Gate
	Hooks          HookRunner
	Session        string
}

func (c Config) withDefaults() Config {
	if c.GlobalLimit <= 0 {
		c.GlobalLimit = 8
	}
	if c.PerCallTimeout <= 0 {
		c.PerCallTimeout = 2 * time.Minute
	}
	return c
}

// Executor dispatches batches of tool calls under the spec's concurrency
// policy.
type Executor struct {
	catalog *tool.Catalog
	cfg     Config

	global  *semaphore.Weighted
	typeMu  sync.Mutex
	perType map[string]*semaphore.Weighted

	// readMu guards reads, the per-session set of paths a low-risk
	// filesystem tool (read_file) has observed this execution. A
	// mutating filesystem tool (write_file, edit_file, multi_edit,
	// json_edit, apply_patch) is gated on its path already appearing
	// here, per spec's read-before-write invariant (§4.3, §8 property 8)
	// and the "per-file read-before-write state is per-session mutable,
	// guarded by a lightweight lock" shared-resource policy (§5).
	readMu sync.Mutex
	reads  map[string]map[string]struct{}
}

// New constructs an Executor over catalog.
func New(catalog *tool.Catalog, cfg Config) *Executor {
	cfg = cfg.withDefaults()
	return &Executor{
		catalog: catalog,
		cfg:     cfg,
		global:  semaphore.NewWeighted(cfg.GlobalLimit),
		perType: make(map[string]*semaphore.Weighted),
		reads:   make(map[string]map[string]struct{}),
	}
}

// recordRead marks path as read under session, for a later mutating call
// in the same session to satisfy the read-before-write check.
func (e *Executor) recordRead(session, path string) {
	e.readMu.Lock()
	defer e.readMu.Unlock()
	set, ok := e.reads[session]
	if !ok {
		set = make(map[string]struct{})
		e.reads[session] = set
	}
	set[path] = struct{}{}
}

func (e *Executor) hasRead(session, path string) bool {
	e.readMu.Lock()
	defer e.readMu.Unlock()
	_, ok := e.reads[session][path]
	return ok
}

// isFileRead reports whether t is the low-risk filesystem tool whose
// successful calls populate the read-before-write set (read_file).
func isFileRead(t tool.Tool) bool {
	return t.Category() == tool.CategoryFilesystem && t.RiskLevel() == task.RiskLow
}

// isMutatingFile reports whether t is a filesystem tool whose calls must
// be gated on a prior read of the same path.
func isMutatingFile(t tool.Tool) bool {
	return t.Category() == tool.CategoryFilesystem && t.RiskLevel() >= task.RiskMedium
}

func (e *Executor) typeSemaphore(name string) *semaphore.Weighted {
	e.typeMu.Lock()
	defer e.typeMu.Unlock()
	if s, ok := e.perType[name]; ok {
		return s
	}
	s := semaphore.NewWeighted(1)
	e.perType[name] = s
	return s
}

// effectiveMode returns the most restrictive mode among the batch's tools.
// Per spec: Sequential is most restrictive, then ExclusiveByType, then
// Limited(n), then Parallel is least restrictive; a mixed batch falls back
// to ExclusiveByType rather than Sequential, since Sequential specifically
// means "one global exclusive lock," which the spec reserves for a batch
// that is entirely Sequential tools.
func effectiveMode(calls []task.ToolCall, catalog *tool.Catalog) task.ConcurrencyMode {
	sawSequential := false
	sawOtherThanParallel := false
	allSequential := true
	for _, c := range calls {
		mode := task.ConcurrencyParallel
		if t, ok := catalog.Get(c.Name); ok {
			mode = t.ConcurrencyMode()
		}
		if mode == task.ConcurrencySequential {
			sawSequential = true
		} else {
			allSequential = false
		}
		if mode != task.ConcurrencyParallel {
			sawOtherThanParallel = true
		}
	}
	if sawSequential && allSequential {
		return task.ConcurrencySequential
	}
	if sawSequential || sawOtherThanParallel {
		return task.ConcurrencyExclusiveByType
	}
	return task.ConcurrencyParallel
}

// Run dispatches calls, returning results aligned to the input order (by
// call id) even though they may complete out of order. step is the
// cancellation token rooted in the execution's token; cwd and risk lookups
// come from the catalog. remainingBudget bounds every call in the batch in
// addition to the configured per-call timeout; the tighter of the two wins.
func (e *Executor) Run(ctx context.Context, step *cancel.Token, calls []task.ToolCall, cwd string, remainingBudget time.Duration) []task.ToolResult {
	mode := effectiveMode(calls, e.catalog)

	results := make([]task.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(step.ChildWithContext(ctx).Context())

	var seqSem *semaphore.Weighted
	if mode == task.ConcurrencySequential {
		seqSem = semaphore.NewWeighted(1)
	}

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = e.dispatch(gctx, step, call, cwd, mode, seqSem, remainingBudget)
			return nil
		})
	}
	_ = g.Wait() // dispatch never returns an error; it records failures in the result

	return results
}

func (e *Executor) dispatch(ctx context.Context, parent *cancel.Token, call task.ToolCall, cwd string, mode task.ConcurrencyMode, seqSem *semaphore.Weighted, remainingBudget time.Duration) task.ToolResult {
	start := time.Now()
	child := parent.ChildWithContext(ctx)
	defer child.Cancel(nil)

	t, ok := e.catalog.Get(call.Name)
	if !ok {
		return failResult(call, fmt.Sprintf("unknown tool %q", call.Name), start)
	}

	if e.cfg.Hooks != nil {
		decision, rewritten := e.cfg.Hooks.PreToolUse(child.Context(), call)
		switch decision {
		case DecisionAbort:
			return failResult(call, "aborted by PreToolUse hook", start)
		case DecisionSkip:
			return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: "skipped by PreToolUse hook", Duration: time.Since(start)}
		}
		call = rewritten
	}

	if e.cfg.Gate != nil {
		decision, err := e.cfg.Gate.Decide(child.Context(), call.Name, call.Args, cwd, t.RiskLevel(), e.cfg.Session)
		if err != nil {
			return failResult(call, fmt.Sprintf("permission gate error: %v", err), start)
		}
		if !decision.Allowed() {
			return permissionDeniedResult(call, decision.Reason, start)
		}
	}

	release, err := e.acquire(child.Context(), call.Name, mode, seqSem)
	if err != nil {
		return failResult(call, fmt.Sprintf("semaphore acquire failed: %v", err), start)
	}
	defer release()

	if err := validateArgs(t.Schema(), call.Args); err != nil {
		return invalidArgsResult(call, err.Error(), start)
	}

	if isMutatingFile(t) {
		path, _ := call.Args["path"].(string)
		if path == "" || !e.hasRead(e.cfg.Session, path) {
			return readBeforeWriteResult(call, path, start)
		}
	}

	timeout := e.cfg.PerCallTimeout
	if remainingBudget > 0 && remainingBudget < timeout {
		timeout = remainingBudget
	}
	callCtx, cancelCall := context.WithTimeout(child.Context(), timeout)
	defer cancelCall()

	result, execErr := e.execute(callCtx, t, call)
	if callCtx.Err() == context.DeadlineExceeded {
		child.Cancel(cancel.ErrCancelled)
		result = timeoutResult(call, timeout, start)
	} else if execErr != nil {
		result = failResult(call, execErr.Error(), start)
	} else {
		result.Duration = time.Since(start)
	}

	if result.Success && isFileRead(t) {
		if path, ok := call.Args["path"].(string); ok && path != "" {
			e.recordRead(e.cfg.Session, path)
		}
	}

	if e.cfg.Hooks != nil {
		decision, annotated := e.cfg.Hooks.PostToolUse(child.Context(), call, result)
		if decision != DecisionAbort {
			result = annotated
		}
	}
	return result
}

func (e *Executor) execute(ctx context.Context, t tool.Tool, call task.ToolCall) (task.ToolResult, error) {
	callable, ok := t.(tool.CallableTool)
	if !ok {
		return task.ToolResult{}, fmt.Errorf("tool %q does not support synchronous execution", call.Name)
	}
	return callable.Call(ctx, call)
}

// acquire takes semaphore permits in the spec's fixed order (global first,
// then per-type) to avoid the lock-ordering deadlock two concurrent calls
// of different tools could otherwise hit by acquiring in opposite order.
func (e *Executor) acquire(ctx context.Context, toolName string, mode task.ConcurrencyMode, seqSem *semaphore.Weighted) (func(), error) {
	if mode == task.ConcurrencySequential {
		if err := seqSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		return func() { seqSem.Release(1) }, nil
	}

	if err := e.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	if mode == task.ConcurrencyExclusiveByType {
		ts := e.typeSemaphore(toolName)
		if err := ts.Acquire(ctx, 1); err != nil {
			e.global.Release(1)
			return nil, err
		}
		return func() { ts.Release(1); e.global.Release(1) }, nil
	}

	return func() { e.global.Release(1) }, nil
}

func failResult(call task.ToolCall, msg string, start time.Time) task.ToolResult {
	return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: msg, Duration: time.Since(start)}
}

func invalidArgsResult(call task.ToolCall, msg string, start time.Time) task.ToolResult {
	return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: "invalid arguments: " + msg, Duration: time.Since(start)}
}

func permissionDeniedResult(call task.ToolCall, reason string, start time.Time) task.ToolResult {
	return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: "permission denied: " + reason, Duration: time.Since(start)}
}

func timeoutResult(call task.ToolCall, timeout time.Duration, start time.Time) task.ToolResult {
	return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: fmt.Sprintf("timed out after %s", timeout), Duration: time.Since(start)}
}

func readBeforeWriteResult(call task.ToolCall, path string, start time.Time) task.ToolResult {
	if path == "" {
		return task.ToolResult{CallID: call.ID, ToolName: call.Name, Success: false, Error: "read-before-write: missing path argument", Duration: time.Since(start)}
	}
	return task.ToolResult{
		CallID:   call.ID,
		ToolName: call.Name,
		Success:  false,
		Error:    fmt.Sprintf("read-before-write violation: %s must be read with read_file in this execution before it can be modified", path),
		Duration: time.Since(start),
	}
}
