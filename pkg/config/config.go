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

// Package config loads and validates the runtime configuration surface
// described in spec.md's external-interfaces section: default provider
// selection, per-provider credentials and tuning, tool execution limits,
// and the sandbox policy a host wires into the Permission Gate. Grounded
// on the teacher's pkg/config.Config (SetDefaults/Validate/reference
// checking shape) generalized from Hector's agent/LLM/tool/document-store
// graph onto sage-core's flatter provider/tool/sandbox surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/checkpoint"
	"github.com/sagerun/sage-core/pkg/observability"
)

// Config is the root configuration structure, unmarshaled from YAML.
type Config struct {
	DefaultProvider  string `yaml:"default_provider"`
	MaxSteps         *int   `yaml:"max_steps,omitempty"`
	TotalTokenBudget *int   `yaml:"total_token_budget,omitempty"`

	Providers map[string]*ProviderConfig `yaml:"providers,omitempty"`
	Tools     ToolsConfig                `yaml:"tools,omitempty"`
	Sandbox   SandboxConfig              `yaml:"sandbox,omitempty"`

	// Observability and Checkpoint are ambient concerns outside spec.md's
	// external-interfaces list (default_provider/max_steps/
	// total_token_budget/providers/tools/sandbox); they are decoded
	// straight through to their own packages' Config types, which default
	// and validate themselves, so this package only carries the YAML tag.
	Observability observability.Config `yaml:"observability,omitempty"`
	Checkpoint    checkpoint.Config    `yaml:"checkpoint,omitempty"`
	CheckpointDir string               `yaml:"checkpoint_dir,omitempty"`
}

// ProviderConfig configures one named LLM backend.
type ProviderConfig struct {
	Type          string   `yaml:"type,omitempty"` // anthropic, openai, google, ollama, openrouter, doubao, glm, azure
	APIKey        string   `yaml:"api_key,omitempty"`
	BaseURL       string   `yaml:"base_url,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	Temperature   float64  `yaml:"temperature,omitempty"`
	MaxTokens     int      `yaml:"max_tokens,omitempty"`
	TopP          float64  `yaml:"top_p,omitempty"`
	TopK          int      `yaml:"top_k,omitempty"`
	StopSequences []string `yaml:"stop_sequences,omitempty"`
	MaxRetries    int      `yaml:"max_retries,omitempty"`

	Timeouts  TimeoutConfig  `yaml:"timeouts,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// TimeoutConfig bounds one provider's network round trips.
type TimeoutConfig struct {
	ConnectionSeconds int `yaml:"connection_seconds,omitempty"`
	RequestSeconds    int `yaml:"request_seconds,omitempty"`
}

// RateLimitConfig caps one provider's call volume; zero fields mean
// unbounded on that dimension.
type RateLimitConfig struct {
	RPM           int `yaml:"rpm,omitempty"`
	TPM           int `yaml:"tpm,omitempty"`
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
}

// ToolsConfig bounds tool execution across the whole runtime.
type ToolsConfig struct {
	MaxExecutionTime     time.Duration `yaml:"max_execution_time,omitempty"`
	AllowParallelExecution *bool       `yaml:"allow_parallel_execution,omitempty"`
}

// SandboxMode selects a named preset of sandbox restrictiveness; Custom
// means the explicit allow/block lists below are authoritative instead of
// a preset.
type SandboxMode string

const (
	SandboxPermissive SandboxMode = "permissive"
	SandboxRestricted SandboxMode = "restricted"
	SandboxStrict     SandboxMode = "strict"
	SandboxCustom     SandboxMode = "custom"
)

// ParseSandboxMode parses a case-insensitive sandbox mode name, defaulting
// to SandboxRestricted for unrecognized input.
func ParseSandboxMode(s string) SandboxMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permissive":
		return SandboxPermissive
	case "strict":
		return SandboxStrict
	case "custom":
		return SandboxCustom
	default:
		return SandboxRestricted
	}
}

// SandboxLimits bounds one execution's resource consumption.
type SandboxLimits struct {
	MemoryBytes int64         `yaml:"memory_bytes,omitempty"`
	CPUSeconds  int           `yaml:"cpu_seconds,omitempty"`
	OutputBytes int64         `yaml:"output_bytes,omitempty"`
	MaxFiles    int           `yaml:"max_files,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// SandboxConfig configures the filesystem, command, and network surface a
// tool call is allowed to touch; translated into permission.Policy entries
// by ToPolicies.
type SandboxConfig struct {
	Mode          SandboxMode `yaml:"mode,omitempty"`
	AllowRead     []string    `yaml:"allow_read,omitempty"`
	AllowWrite    []string    `yaml:"allow_write,omitempty"`
	AllowCommands []string    `yaml:"allow_commands,omitempty"`
	BlockCommands []string    `yaml:"block_commands,omitempty"`
	AllowNetwork  bool        `yaml:"allow_network,omitempty"`
	AllowedHosts  []string    `yaml:"allowed_hosts,omitempty"`
	Limits        SandboxLimits `yaml:"limits,omitempty"`
}

// SetDefaults fills in zero-valued fields with the runtime's defaults. Call
// this once after unmarshaling and before Validate.
func (c *Config) SetDefaults() {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, p := range c.Providers {
		if p == nil {
			p = &ProviderConfig{}
			c.Providers[name] = p
		}
		p.setDefaults()
	}
	c.Tools.setDefaults()
	c.Sandbox.setDefaults()
	if c.CheckpointDir == "" {
		c.CheckpointDir = ".sage/checkpoints"
	}
}

func (p *ProviderConfig) setDefaults() {
	if p.Temperature == 0 {
		p.Temperature = 1.0
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 4096
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = 3
	}
	if p.Timeouts.ConnectionSeconds == 0 {
		p.Timeouts.ConnectionSeconds = 10
	}
	if p.Timeouts.RequestSeconds == 0 {
		p.Timeouts.RequestSeconds = 120
	}
}

func (t *ToolsConfig) setDefaults() {
	if t.MaxExecutionTime == 0 {
		t.MaxExecutionTime = 5 * time.Minute
	}
	if t.AllowParallelExecution == nil {
		allow := true
		t.AllowParallelExecution = &allow
	}
}

func (s *SandboxConfig) setDefaults() {
	if s.Mode == "" {
		s.Mode = SandboxRestricted
	}
	if s.Limits.Timeout == 0 {
		s.Limits.Timeout = 5 * time.Minute
	}
}

// Validate checks the configuration for errors, collecting as many as it
// can before returning rather than failing on the first one, matching the
// teacher's Config.Validate behavior.
func (c *Config) Validate() error {
	var errs []string

	if c.DefaultProvider == "" {
		errs = append(errs, "default_provider is required")
	} else if _, ok := c.Providers[c.DefaultProvider]; !ok {
		errs = append(errs, fmt.Sprintf("default_provider %q is not defined under providers", c.DefaultProvider))
	}

	if c.MaxSteps != nil && *c.MaxSteps <= 0 {
		errs = append(errs, "max_steps must be positive when set")
	}
	if c.TotalTokenBudget != nil && *c.TotalTokenBudget <= 0 {
		errs = append(errs, "total_token_budget must be positive when set")
	}

	for name, p := range c.Providers {
		if p == nil {
			continue
		}
		if err := p.validate(); err != nil {
			errs = append(errs, fmt.Sprintf("provider %q: %v", name, err))
		}
	}

	if err := c.Sandbox.validate(); err != nil {
		errs = append(errs, fmt.Sprintf("sandbox: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if p.Model == "" {
		return fmt.Errorf("model is required")
	}
	if p.Type != "ollama" && p.APIKey == "" {
		return fmt.Errorf("api_key is required for provider type %q", p.Type)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]")
	}
	return nil
}

func (s *SandboxConfig) validate() error {
	switch s.Mode {
	case SandboxPermissive, SandboxRestricted, SandboxStrict, SandboxCustom:
	default:
		return fmt.Errorf("unrecognized mode %q", s.Mode)
	}
	if s.Mode == SandboxCustom && len(s.AllowRead) == 0 && len(s.AllowWrite) == 0 && len(s.AllowCommands) == 0 {
		return fmt.Errorf("custom mode requires at least one allow_read, allow_write, or allow_commands entry")
	}
	return nil
}

// GetProvider returns the named provider config.
func (c *Config) GetProvider(name string) (*ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ListProviders returns the names of all configured providers.
func (c *Config) ListProviders() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	return names
}
