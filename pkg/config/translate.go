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

package config

import (
	"time"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/permission"
	"github.com/sagerun/sage-core/pkg/ratelimit"
	"github.com/sagerun/sage-core/pkg/task"
)

// ToLLMConfig translates a ProviderConfig into the llm.Config shape the
// provider factories in pkg/llm/* accept.
func (p *ProviderConfig) ToLLMConfig() llm.Config {
	return llm.Config{
		Model:         p.Model,
		APIKey:        p.APIKey,
		BaseURL:       p.BaseURL,
		Temperature:   p.Temperature,
		MaxTokens:     p.MaxTokens,
		TopP:          p.TopP,
		TopK:          p.TopK,
		StopSequences: p.StopSequences,
		MaxRetries:    p.MaxRetries,
	}
}

// ToRateLimitConfig translates the rpm/tpm/max-concurrent surface into a
// ratelimit.Config keyed on requests per second; tpm is reported back
// alongside since pkg/ratelimit only buckets a single dimension and a
// token-aware caller (the Thinking phase, which already knows the next
// request's estimated token count) applies the tpm ceiling itself.
func (r RateLimitConfig) ToRateLimitConfig() (calls ratelimit.Config, tpm int) {
	cfg := ratelimit.Config{}
	if r.RPM > 0 {
		cfg.RatePerSecond = float64(r.RPM) / 60.0
	}
	if r.MaxConcurrent > 0 {
		cfg.Burst = r.MaxConcurrent
	}
	return cfg, r.TPM
}

// ConnectionTimeout and RequestTimeout expose the configured per-provider
// network timeouts as time.Duration, defaulting both to SetDefaults'
// values if SetDefaults has not been called.
func (t TimeoutConfig) ConnectionTimeout() time.Duration {
	if t.ConnectionSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.ConnectionSeconds) * time.Second
}

func (t TimeoutConfig) RequestTimeout() time.Duration {
	if t.RequestSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(t.RequestSeconds) * time.Second
}

// ToPolicies translates the sandbox's allow/block command lists into
// permission.Policy entries a permission.Gate can be configured with:
// every allow-listed command pattern is mapped to ActionAllow, every
// block-listed one to ActionDeny (checked first by the Gate since it
// iterates policies in table order and the caller is expected to list
// BlockCommands-derived policies ahead of AllowCommands-derived ones).
// Read/write paths are translated into path-scoped policies against the
// conventional "read_file"/"write_file" tool names; a Custom-mode sandbox
// with no allow entries for a dimension denies every call on that
// dimension via a catch-all deny policy, while Permissive/Restricted/
// Strict modes only emit the explicit command policies and leave path
// and network scoping to the host's own tool implementations.
func (s SandboxConfig) ToPolicies() []permission.Policy {
	var policies []permission.Policy

	for _, cmd := range s.BlockCommands {
		policies = append(policies, permission.Policy{
			ToolPattern: "exec*", PathPattern: cmd, MaxRisk: task.RiskHigh, Action: permission.ActionDeny,
		})
	}
	for _, cmd := range s.AllowCommands {
		policies = append(policies, permission.Policy{
			ToolPattern: "exec*", PathPattern: cmd, MaxRisk: task.RiskHigh, Action: permission.ActionAllow,
		})
	}
	for _, dir := range s.AllowRead {
		policies = append(policies, permission.Policy{
			ToolPattern: "read_file", PathPattern: dir, MaxRisk: task.RiskLow, Action: permission.ActionAllow,
		})
	}
	for _, dir := range s.AllowWrite {
		policies = append(policies, permission.Policy{
			ToolPattern: "write_file", PathPattern: dir, MaxRisk: task.RiskHigh, Action: permission.ActionAllow,
		})
	}

	if s.Mode == SandboxCustom {
		if len(s.AllowWrite) > 0 {
			policies = append(policies, permission.Policy{ToolPattern: "write_file", MaxRisk: task.RiskCritical, Action: permission.ActionDeny})
		}
		if len(s.AllowRead) > 0 {
			policies = append(policies, permission.Policy{ToolPattern: "read_file", MaxRisk: task.RiskCritical, Action: permission.ActionDeny})
		}
	}

	return policies
}

// GateMode translates the sandbox mode into the permission.Gate fallback
// mode used when no policy entry resolves a call: Permissive maps to
// auto-allow, Strict and Custom map to policy-only (deny anything not
// explicitly allowed), and Restricted maps to interactive (ask when
// undecided), matching spec's description of Restricted as the
// ask-before-acting middle ground between Permissive and Strict.
func (s SandboxConfig) GateMode() permission.Mode {
	switch s.Mode {
	case SandboxPermissive:
		return permission.ModeAutoAllow
	case SandboxStrict, SandboxCustom:
		return permission.ModePolicyOnly
	default:
		return permission.ModeInteractive
	}
}
