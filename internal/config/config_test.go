package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.Quota.FreeProposalLimit)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, 2000, cfg.LLM.AnswerMaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 5*time.Minute, cfg.Session.APIKeyCacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Fill.ReassertInitialDelay)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
llm:
  provider: "openai"
  claude:
    api_key: "${TEST_CLAUDE_KEY}"
readiness:
  max_polls: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("TEST_CLAUDE_KEY", "sk-ant-test")
	t.Setenv("BACKEND_URL", "http://backend.test:5500")
	t.Setenv("LLM_API_KEY", "sk-primary")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-ant-test", cfg.LLM.Claude.APIKey)
	assert.Equal(t, "sk-primary", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "http://backend.test:5500", cfg.Backend.BaseURL)
	assert.Equal(t, 5, cfg.Readiness.MaxPolls)
	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Orchestrator.QuestionAttempts)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "llama"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Temperature = 1.5
	assert.Error(t, cfg.Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PP_HOST", "example.org")

	assert.Equal(t, "http://example.org/x", expandEnvVars("http://${PP_HOST}/x"))
	assert.Equal(t, "example.org", expandEnvVars("$PP_HOST"))
	assert.Equal(t, "${PP_UNSET_VAR}", expandEnvVars("${PP_UNSET_VAR}"))
}
