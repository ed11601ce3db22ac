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
	"path/filepath"

	"github.com/sagerun/sage-core/pkg/breaker"
	"github.com/sagerun/sage-core/pkg/checkpoint"
	"github.com/sagerun/sage-core/pkg/config"
	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/llm"
	_ "github.com/sagerun/sage-core/pkg/llm/anthropic"
	_ "github.com/sagerun/sage-core/pkg/llm/google"
	_ "github.com/sagerun/sage-core/pkg/llm/ollama"
	_ "github.com/sagerun/sage-core/pkg/llm/openai"
	"github.com/sagerun/sage-core/pkg/observability"
	"github.com/sagerun/sage-core/pkg/permission"
	"github.com/sagerun/sage-core/pkg/ratelimit"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
	"github.com/sagerun/sage-core/pkg/tool/builtin"
)

// runtime is the bundle of long-lived, config-derived collaborators a
// single `sage run` invocation assembles once and every Loop/Executor it
// drives shares: the tool catalog, permission gate, rate limiter and
// breaker registries, and the observability/checkpoint managers. Grounded
// on the teacher's cmd/hector wiring (config.Config -> runtime.New ->
// per-agent executors), flattened here to cmd/sage's single-agent,
// single-task scope.
type runtime struct {
	cfg *config.Config

	catalog  *tool.Catalog
	gate     *permission.Gate
	bus      *eventbus.Bus
	limiters *ratelimit.Registry
	breakers *breaker.Registry

	obs        *observability.Manager
	checkpoint *checkpoint.Manager

	// mutatingTools mirrors every registered tool's RiskLevel into the
	// loop's StrictMode predicate: a tool at RiskMedium or above counts as
	// "mutating" for the purpose of spec's strict-mode completion rule.
	mutatingTools map[string]bool
}

// newRuntime builds every collaborator cfg describes. workingDir scopes
// the filesystem/exec tools the catalog registers.
func newRuntime(ctx context.Context, cfg *config.Config, workingDir string) (*runtime, error) {
	// Keyed by provider Type, not by the config map's (arbitrary) name: a
	// Provider reports its Name() as its backend type (e.g. "anthropic"),
	// which is what llm.Resilient looks the limiter/breaker up by.
	rateLimits := make(map[string]ratelimit.Config, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		if pc == nil {
			continue
		}
		if rlCfg, _ := pc.RateLimit.ToRateLimitConfig(); rlCfg.RatePerSecond > 0 || rlCfg.Burst > 0 {
			rateLimits[pc.Type] = rlCfg
		}
	}

	rt := &runtime{
		cfg:      cfg,
		catalog:  tool.NewCatalog(),
		bus:      eventbus.New(),
		limiters: ratelimit.NewRegistry(rateLimits, ratelimit.Config{}),
		breakers: breaker.NewRegistry(breaker.Config{}),
	}

	if err := rt.registerTools(workingDir); err != nil {
		return nil, err
	}

	rt.gate = permission.New(cfg.Sandbox.ToPolicies(), permission.Config{Mode: cfg.Sandbox.GateMode()})

	obs, err := observability.NewManager(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("sage: observability: %w", err)
	}
	rt.obs = obs

	store, err := checkpoint.NewStorage(cfg.CheckpointDir)
	if err != nil {
		return nil, fmt.Errorf("sage: checkpoint storage: %w", err)
	}
	checkpointCfg := cfg.Checkpoint
	rt.checkpoint = checkpoint.NewManager(&checkpointCfg, store, rt.bus)

	return rt, nil
}

func (rt *runtime) registerTools(workingDir string) error {
	tools := []tool.Tool{
		builtin.NewReadFileTool(workingDir),
		builtin.NewWriteFileTool(workingDir),
		builtin.NewEditFileTool(workingDir),
		builtin.NewMultiEditTool(workingDir),
		builtin.NewJSONEditTool(workingDir),
		builtin.NewApplyPatchTool(workingDir),
		builtin.NewGlobTool(workingDir),
		builtin.NewGrepTool(workingDir),
		builtin.NewBashTool(workingDir),
		builtin.NewThinkTool(),
		builtin.NewTodoWriteTool(),
		builtin.NewWebFetchTool(),
	}

	rt.mutatingTools = make(map[string]bool, len(tools))
	for _, t := range tools {
		if err := rt.catalog.Register(t); err != nil {
			return fmt.Errorf("sage: registering tool %s: %w", t.Name(), err)
		}
		rt.mutatingTools[t.Name()] = t.RiskLevel() >= task.RiskMedium
	}
	return nil
}

// provider resolves name against cfg.Providers, constructs the concrete
// backend via the llm package's factory registry (populated by this
// file's blank imports), and wraps it in llm.Resilient keyed by rate-limit
// and circuit-breaker registries shared across every provider this
// process constructs.
func (rt *runtime) provider(name string) (llm.Provider, error) {
	pc, ok := rt.cfg.GetProvider(name)
	if !ok {
		return nil, fmt.Errorf("sage: provider %q is not configured", name)
	}

	p, err := llm.New(pc.Type, pc.ToLLMConfig())
	if err != nil {
		return nil, fmt.Errorf("sage: constructing provider %q: %w", name, err)
	}

	return llm.Resilient(p, rt.limiters, rt.breakers), nil
}

// trajectoryDir is where `sage run` writes per-execution trajectory logs.
func (rt *runtime) trajectoryDir() string {
	return filepath.Join(".sage", "trajectories")
}

func (rt *runtime) close() {
	_ = rt.obs.Shutdown(context.Background())
}
