package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvVars_BracedReference(t *testing.T) {
	t.Setenv("SAGE_TEST_KEY", "secret-value")
	assert.Equal(t, "secret-value", expandEnvVars("${SAGE_TEST_KEY}"))
}

func TestExpandEnvVars_SimpleReference(t *testing.T) {
	t.Setenv("SAGE_TEST_KEY", "secret-value")
	assert.Equal(t, "bearer secret-value", expandEnvVars("bearer $SAGE_TEST_KEY"))
}

func TestExpandEnvVars_DefaultUsedWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", expandEnvVars("${SAGE_TEST_UNSET_VAR:-fallback}"))
}

func TestExpandEnvVars_DefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("SAGE_TEST_KEY", "actual")
	assert.Equal(t, "actual", expandEnvVars("${SAGE_TEST_KEY:-fallback}"))
}

func TestExpandEnvVars_NoDollarSignIsUntouched(t *testing.T) {
	assert.Equal(t, "plain string", expandEnvVars("plain string"))
}

func TestExpandEnvVarsInData_WalksNestedStructures(t *testing.T) {
	t.Setenv("SAGE_TEST_PORT", "8080")
	data := map[string]any{
		"server": map[string]any{
			"port": "${SAGE_TEST_PORT}",
			"tags": []any{"a", "${SAGE_TEST_PORT}"},
		},
	}

	got := ExpandEnvVarsInData(data).(map[string]any)
	server := got["server"].(map[string]any)
	assert.Equal(t, 8080, server["port"])
	tags := server["tags"].([]any)
	assert.Equal(t, 8080, tags[1])
}

func TestParseValue_CoercesBoolAndNumeric(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, 3.5, parseValue("3.5"))
	assert.Equal(t, "hello", parseValue("hello"))
}

func TestResolveAPIKey_PrecedenceOrder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	assert.Equal(t, "from-cli", ResolveAPIKey("openai", "from-cli", "from-project-file"))
	assert.Equal(t, "from-env", ResolveAPIKey("openai", "", "from-project-file", "from-user-file"))
}

func TestResolveAPIKey_FallsBackToConfigFiles(t *testing.T) {
	assert.Equal(t, "from-project-file", ResolveAPIKey("doesnotexist", "", "from-project-file", "from-user-file"))
	assert.Equal(t, "", ResolveAPIKey("doesnotexist", ""))
}
