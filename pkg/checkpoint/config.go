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

// Package checkpoint captures a running Execution's state at step
// boundaries and persists it to disk, so a Supervisor configured with the
// Resume policy can restart the loop from the last completed Step instead
// of from scratch.
//
// Grounded on the teacher's pkg/checkpoint (Config/Strategy/RecoveryConfig
// shape, event/interval/hybrid checkpoint strategies, auto-resume
// recovery), adapted from Hector's session.Service-backed storage (a
// checkpoint is a key under a session's persisted state) to a file-backed
// store under its own directory, since sage-core has no session store —
// its closest persistence precedent is pkg/trajectory's append-only
// per-execution file.
package checkpoint

import (
	"fmt"
	"time"
)

// Strategy determines when checkpoints are created.
type Strategy string

const (
	StrategyEvent    Strategy = "event"
	StrategyInterval Strategy = "interval"
	StrategyHybrid   Strategy = "hybrid"
)

// Config configures checkpoint behavior.
type Config struct {
	// Enabled turns checkpointing on. Default: false.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Strategy determines when checkpoints are created. Default: "event".
	Strategy Strategy `yaml:"strategy,omitempty"`

	// Interval checkpoints every N steps. Only used when Strategy is
	// "interval" or "hybrid". Default: 0 (disabled).
	Interval int `yaml:"interval,omitempty"`

	// AfterTools checkpoints after a step's tool-execution batch completes.
	AfterTools *bool `yaml:"after_tools,omitempty"`

	// BeforeLLM checkpoints before each Thinking-phase LLM call.
	BeforeLLM *bool `yaml:"before_llm,omitempty"`

	Recovery *RecoveryConfig `yaml:"recovery,omitempty"`
}

// RecoveryConfig configures checkpoint recovery behavior.
type RecoveryConfig struct {
	// AutoResume enables automatic recovery of pending executions found on
	// disk at startup. Default: false.
	AutoResume *bool `yaml:"auto_resume,omitempty"`

	// Timeout is the maximum age, in seconds, for a checkpoint to be
	// recoverable. Checkpoints older than this are treated as expired.
	// Default: 3600.
	Timeout int `yaml:"timeout,omitempty"`
}

func (c *Config) SetDefaults() {
	if c.Enabled == nil {
		v := false
		c.Enabled = &v
	}
	if c.Strategy == "" {
		c.Strategy = StrategyEvent
	}
	if c.AfterTools == nil {
		v := false
		c.AfterTools = &v
	}
	if c.BeforeLLM == nil {
		v := false
		c.BeforeLLM = &v
	}
	if c.Recovery == nil {
		c.Recovery = &RecoveryConfig{}
	}
	c.Recovery.SetDefaults()
}

func (c *RecoveryConfig) SetDefaults() {
	if c.AutoResume == nil {
		v := false
		c.AutoResume = &v
	}
	if c.Timeout == 0 {
		c.Timeout = 3600
	}
}

func (c *Config) Validate() error {
	if c.Strategy != "" && c.Strategy != StrategyEvent && c.Strategy != StrategyInterval && c.Strategy != StrategyHybrid {
		return fmt.Errorf("checkpoint: invalid strategy %q (valid: event, interval, hybrid)", c.Strategy)
	}
	if c.Interval < 0 {
		return fmt.Errorf("checkpoint: interval must be non-negative")
	}
	if c.Recovery != nil && c.Recovery.Timeout < 0 {
		return fmt.Errorf("checkpoint: recovery timeout must be non-negative")
	}
	return nil
}

func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

func (c *Config) ShouldCheckpointAfterTools() bool {
	return c.IsEnabled() && c.AfterTools != nil && *c.AfterTools
}

func (c *Config) ShouldCheckpointBeforeLLM() bool {
	return c.IsEnabled() && c.BeforeLLM != nil && *c.BeforeLLM
}

func (c *Config) shouldCheckpointInterval() bool {
	return c.IsEnabled() && (c.Strategy == StrategyInterval || c.Strategy == StrategyHybrid) && c.Interval > 0
}

// ShouldCheckpointAtStep reports whether step (0-indexed, post-increment
// count) falls on the configured interval boundary.
func (c *Config) ShouldCheckpointAtStep(step int) bool {
	if !c.shouldCheckpointInterval() {
		return false
	}
	return step > 0 && step%c.Interval == 0
}

func (c *Config) RecoveryTimeout() time.Duration {
	if c == nil || c.Recovery == nil || c.Recovery.Timeout <= 0 {
		return time.Hour
	}
	return time.Duration(c.Recovery.Timeout) * time.Second
}

func (c *Config) ShouldAutoResume() bool {
	return c.IsEnabled() && c.Recovery != nil && c.Recovery.AutoResume != nil && *c.Recovery.AutoResume
}
