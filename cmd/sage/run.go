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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sagerun/sage-core/pkg/cancel"
	"github.com/sagerun/sage-core/pkg/checkpoint"
	"github.com/sagerun/sage-core/pkg/config"
	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/executor"
	"github.com/sagerun/sage-core/pkg/hooks"
	"github.com/sagerun/sage-core/pkg/logger"
	"github.com/sagerun/sage-core/pkg/loop"
	"github.com/sagerun/sage-core/pkg/observability"
	"github.com/sagerun/sage-core/pkg/supervisor"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/trajectory"
)

const defaultSystemPrompt = "You are sage, an autonomous coding agent. Use the tools available to you " +
	"to complete the user's task, then stop. Only call tools when you need to observe or change the " +
	"working directory's contents; otherwise just answer."

// RunCmd drives one Task through the Reactive Loop to a terminal Outcome.
// It is cmd/sage's one substantial command: the rest of the CLI surface
// (version) exists only so `sage` is runnable at all.
type RunCmd struct {
	Prompt     string `arg:"" help:"The task prompt to run."`
	WorkingDir string `name:"working-dir" short:"d" help:"Working directory for filesystem/exec tools." type:"path" default:"."`
	Provider   string `help:"Override the config's default_provider."`
	MaxSteps   int    `name:"max-steps" help:"Override the config's max_steps."`
	Strict     bool   `help:"Require at least one mutating tool call before accepting a completion with no explicit task_done signal."`

	RestartMax    int           `name:"restart-max" help:"Restart the loop up to this many times on failure (0 = run once)."`
	RestartWindow time.Duration `name:"restart-window" help:"Rolling window restart-max is counted over." default:"5m"`
	Resume        bool          `help:"On failure, retry unconditionally, trusting checkpoint recovery instead of a restart budget."`
}

func (c *RunCmd) Run(cli *CLI) error {
	logger.Init(logger.ParseLevel(cli.LogLevel), os.Stderr)

	loader, err := config.NewLoader(cli.Config)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	providerName := cfg.DefaultProvider
	if c.Provider != "" {
		providerName = c.Provider
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, cfg, c.WorkingDir)
	if err != nil {
		return err
	}
	defer rt.close()

	provider, err := rt.provider(providerName)
	if err != nil {
		return err
	}

	maxSteps := cfg.MaxSteps
	if c.MaxSteps > 0 {
		maxSteps = &c.MaxSteps
	}

	runID := uuid.NewString()

	writer, err := trajectory.NewWriter(rt.trajectoryDir(), runID, trajectory.RotationPolicy{}, rt.bus)
	if err != nil {
		return err
	}
	defer writer.Close()

	hookReg := hooks.New(5 * time.Second)
	if m := rt.obs.Metrics(); m != nil {
		hookReg.Register(observability.Hook(m))
	}
	if rt.checkpoint.IsEnabled() {
		hookReg.Register(checkpoint.Hook(rt.checkpoint))
	}

	exec := executor.New(rt.catalog, executor.Config{
		Gate:    rt.gate,
		Hooks:   hooks.ExecutorAdapter{Registry: hookReg, ExecutionID: runID, Session: runID},
		Session: runID,
	})

	l := loop.New(loop.Config{
		Provider:      provider,
		Catalog:       rt.catalog,
		Executor:      exec,
		Hooks:         hookReg,
		Trajectory:    writer,
		Bus:           rt.bus,
		SystemPrompt:  defaultSystemPrompt,
		MaxSteps:      maxSteps,
		StrictMode:    c.Strict,
		MutatingTools: rt.mutatingTools,
		Session:       runID,
	})

	t := task.Task{ID: runID, Prompt: c.Prompt, WorkingDir: c.WorkingDir}

	outcome, runErr := c.run(l, t, rt.bus)

	printOutcome(outcome)
	if runErr != nil {
		return runErr
	}
	return nil
}

// run drives l.Execute either directly (no restart policy configured) or
// through a Supervisor, per spec §4.9's Restart/Resume policies.
func (c *RunCmd) run(l *loop.Loop, t task.Task, bus *eventbus.Bus) (loop.Outcome, error) {
	root := cancel.NewRoot()
	defer root.Cancel(nil)

	execute := func(ctx context.Context, attempt *cancel.Token) (loop.Outcome, error) {
		outcome := l.Execute(attempt, t)
		if outcome.Execution != nil && outcome.Execution.Outcome == task.OutcomeFailed {
			return outcome, fmt.Errorf("loop: %s: %s", outcome.Execution.ErrorKind, outcome.Execution.ErrorMsg)
		}
		return outcome, nil
	}

	if c.RestartMax <= 0 && !c.Resume {
		return execute(root.Context(), root)
	}

	policy := supervisor.Policy{Kind: supervisor.PolicyRestart, Max: c.RestartMax, Window: c.RestartWindow}
	if c.Resume {
		policy = supervisor.Policy{Kind: supervisor.PolicyResume}
	}

	s := supervisor.New(policy, bus)
	return s.Supervise(root.Context(), root, execute)
}

func printOutcome(o loop.Outcome) {
	if o.Execution == nil {
		fmt.Println("sage: no execution result")
		return
	}
	e := o.Execution
	fmt.Printf("\nsage: execution %s finished: %s (%s)\n", e.ID, e.Outcome, o.State)
	fmt.Printf("  steps: %d  tokens in: %d  tokens out: %d\n", len(e.Steps), e.Usage.InputTokens, e.Usage.OutputTokens)
	if e.Warning != "" {
		fmt.Printf("  warning: %s\n", e.Warning)
	}
	if len(e.Steps) > 0 {
		last := e.Steps[len(e.Steps)-1]
		if last.Assistant.Content != "" {
			fmt.Printf("\n%s\n", last.Assistant.Content)
		}
	}
}
