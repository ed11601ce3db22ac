package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
default_provider: anthropic
max_steps: 20
providers:
  anthropic:
    type: anthropic
    model: claude-sonnet-4
    api_key: ${SAGE_TEST_LOADER_KEY}
    temperature: 0.5
tools:
  max_execution_time: 30s
sandbox:
  mode: strict
`

func writeTestConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "sage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoader_LoadDecodesExpandsAndDefaults(t *testing.T) {
	t.Setenv("SAGE_TEST_LOADER_KEY", "secret")
	dir := t.TempDir()
	path := writeTestConfig(t, dir, testYAML)

	loader, err := NewLoader(path)
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	require.NotNil(t, cfg.MaxSteps)
	assert.Equal(t, 20, *cfg.MaxSteps)
	assert.Equal(t, "secret", cfg.Providers["anthropic"].APIKey)
	assert.Equal(t, 0.5, cfg.Providers["anthropic"].Temperature)
	assert.Equal(t, 30*time.Second, cfg.Tools.MaxExecutionTime)
	assert.Equal(t, SandboxStrict, cfg.Sandbox.Mode)
}

func TestLoader_LoadFailsValidationWithoutAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, `
default_provider: anthropic
providers:
  anthropic:
    type: anthropic
    model: claude-sonnet-4
`)
	loader, err := NewLoader(path)
	require.NoError(t, err)

	_, err = loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoader_WatchReloadsOnWrite(t *testing.T) {
	t.Setenv("SAGE_TEST_LOADER_KEY", "secret")
	dir := t.TempDir()
	path := writeTestConfig(t, dir, testYAML)

	loader, err := NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = loader.Watch(ctx, func(c *Config) { changed <- c }) }()

	time.Sleep(50 * time.Millisecond) // let the watcher attach before the write
	updated := testYAML + "\n" // trailing newline is enough to trigger a Write event
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "anthropic", cfg.DefaultProvider)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
