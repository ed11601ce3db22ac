package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaultsFillsProviderAndSandbox(t *testing.T) {
	cfg := &Config{
		Providers: map[string]*ProviderConfig{
			"anthropic": {Type: "anthropic", Model: "claude-sonnet-4", APIKey: "k"},
		},
	}
	cfg.SetDefaults()

	p := cfg.Providers["anthropic"]
	assert.Equal(t, 1.0, p.Temperature)
	assert.Equal(t, 4096, p.MaxTokens)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, SandboxRestricted, cfg.Sandbox.Mode)
	require.NotNil(t, cfg.Tools.AllowParallelExecution)
	assert.True(t, *cfg.Tools.AllowParallelExecution)
}

func TestConfig_ValidateRequiresDefaultProviderDefined(t *testing.T) {
	cfg := &Config{DefaultProvider: "missing"}
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_provider")
}

func TestConfig_ValidateRequiresAPIKeyExceptOllama(t *testing.T) {
	cfg := &Config{
		DefaultProvider: "local",
		Providers: map[string]*ProviderConfig{
			"local":     {Type: "ollama", Model: "llama3"},
			"anthropic": {Type: "anthropic", Model: "claude-sonnet-4"},
		},
	}
	cfg.SetDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "anthropic"`)
	assert.NotContains(t, err.Error(), `provider "local"`)
}

func TestConfig_ValidateRejectsUnknownSandboxMode(t *testing.T) {
	cfg := &Config{
		DefaultProvider: "local",
		Providers:       map[string]*ProviderConfig{"local": {Type: "ollama", Model: "llama3"}},
		Sandbox:         SandboxConfig{Mode: "bogus"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sandbox")
}

func TestConfig_ValidateCustomModeRequiresAnAllowList(t *testing.T) {
	cfg := &Config{
		DefaultProvider: "local",
		Providers:       map[string]*ProviderConfig{"local": {Type: "ollama", Model: "llama3"}},
		Sandbox:         SandboxConfig{Mode: SandboxCustom},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom mode requires")
}

func TestParseSandboxMode(t *testing.T) {
	assert.Equal(t, SandboxPermissive, ParseSandboxMode("Permissive"))
	assert.Equal(t, SandboxStrict, ParseSandboxMode("STRICT"))
	assert.Equal(t, SandboxCustom, ParseSandboxMode("custom"))
	assert.Equal(t, SandboxRestricted, ParseSandboxMode("whatever"))
}

func TestConfig_ToLLMConfigCarriesTuningKnobs(t *testing.T) {
	p := &ProviderConfig{
		Model: "gpt-4o", APIKey: "k", TopP: 0.9, TopK: 40,
		StopSequences: []string{"</end>"}, MaxRetries: 5,
	}
	got := p.ToLLMConfig()
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 0.9, got.TopP)
	assert.Equal(t, 40, got.TopK)
	assert.Equal(t, []string{"</end>"}, got.StopSequences)
	assert.Equal(t, 5, got.MaxRetries)
}

func TestRateLimitConfig_ToRateLimitConfig(t *testing.T) {
	r := RateLimitConfig{RPM: 600, TPM: 100000, MaxConcurrent: 4}
	calls, tpm := r.ToRateLimitConfig()
	assert.Equal(t, 10.0, calls.RatePerSecond)
	assert.Equal(t, 4, calls.Burst)
	assert.Equal(t, 100000, tpm)
}

func TestSandboxConfig_GateMode(t *testing.T) {
	assert.Equal(t, 0, int(SandboxConfig{Mode: SandboxPermissive}.GateMode()))
	assert.NotEqual(t, SandboxConfig{Mode: SandboxStrict}.GateMode(), SandboxConfig{Mode: SandboxPermissive}.GateMode())
}

func TestSandboxConfig_ToPoliciesEmitsAllowAndDenyEntries(t *testing.T) {
	s := SandboxConfig{
		Mode:          SandboxCustom,
		AllowRead:     []string{"/workspace/**"},
		AllowWrite:    []string{"/workspace/**"},
		AllowCommands: []string{"git *"},
		BlockCommands: []string{"rm -rf *"},
	}
	policies := s.ToPolicies()
	require.NotEmpty(t, policies)

	var sawBlockedRM, sawAllowedGit bool
	for _, p := range policies {
		if p.PathPattern == "rm -rf *" {
			sawBlockedRM = true
		}
		if p.PathPattern == "git *" {
			sawAllowedGit = true
		}
	}
	assert.True(t, sawBlockedRM)
	assert.True(t, sawAllowedGit)
}
