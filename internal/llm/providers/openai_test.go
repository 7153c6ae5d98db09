package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/config"
	"proposal-autofill/pkg/models"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.LLM.OpenAI.BaseURL = baseURL
	cfg.LLM.OpenAI.APIKey = ""
	return cfg
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-server-key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello there  "}}],"usage":{"prompt_tokens":10,"completion_tokens":3}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(testConfig(srv.URL))
	text, err := p.Complete(context.Background(), models.CompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "meta"},
			{Role: models.RoleUser, Content: "job"},
		},
		Temperature: 0.7,
		MaxTokens:   500,
		APIKey:      "sk-server-key-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(testConfig(srv.URL))
	_, err := p.Complete(context.Background(), models.CompletionRequest{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "x"}},
		APIKey:   "sk-bad",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	p := NewOpenAIProvider(testConfig("http://127.0.0.1:1"))
	_, err := p.Complete(context.Background(), models.CompletionRequest{})
	assert.Error(t, err)
}

func TestOpenAIProvider_ModelMapping(t *testing.T) {
	p := NewOpenAIProvider(testConfig(""))
	assert.Equal(t, "gpt-3.5-turbo", p.model(models.CompletionRequest{Model: "claude-3-5-haiku-latest"}))
	assert.Equal(t, "https://api.openai.com/v1", p.baseURL)
}

func TestOpenAIProvider_IsHealthy(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.LLM.UseServerKeys = true
	assert.NoError(t, NewOpenAIProvider(cfg).IsHealthy(context.Background()))

	cfg.LLM.UseServerKeys = false
	assert.Error(t, NewOpenAIProvider(cfg).IsHealthy(context.Background()))
}
