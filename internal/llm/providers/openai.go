package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

// OpenAIProvider calls the chat-completions endpoint directly
type OpenAIProvider struct {
	httpClient *http.Client
	config     *config.Config
	baseURL    string
	logger     logging.Logger
}

type openAIRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	baseURL := strings.TrimRight(cfg.LLM.OpenAI.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		baseURL:    baseURL,
		logger:     logging.GetGlobalLogger().WithField("provider", "openai"),
	}
}

func (p *OpenAIProvider) apiKey(req models.CompletionRequest) string {
	if req.APIKey != "" {
		return req.APIKey
	}
	return p.config.LLM.OpenAI.APIKey
}

func (p *OpenAIProvider) model(req models.CompletionRequest) string {
	if req.Model != "" && !strings.HasPrefix(req.Model, "claude") && !strings.HasPrefix(req.Model, "gemini") {
		return req.Model
	}
	if p.config.LLM.Model != "" {
		return p.config.LLM.Model
	}
	return "gpt-3.5-turbo"
}

// Complete sends req to /chat/completions and returns the first choice
func (p *OpenAIProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	key := p.apiKey(req)
	if key == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	startTime := time.Now()
	body, err := json.Marshal(openAIRequest{
		Model:       p.model(req),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	p.logger.Debug("OpenAI completion finished", map[string]interface{}{
		"model":             p.model(req),
		"prompt_tokens":     parsed.Usage.PromptTokens,
		"completion_tokens": parsed.Usage.CompletionTokens,
		"processing_time":   time.Since(startTime).String(),
	})

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// IsHealthy lists models when a key is configured. Without one the
// provider still works with per-request keys.
func (p *OpenAIProvider) IsHealthy(ctx context.Context) error {
	key := p.config.LLM.OpenAI.APIKey
	if key == "" {
		if p.config.LLM.UseServerKeys {
			return nil
		}
		return fmt.Errorf("OpenAI API key not configured - set OPENAI_API_KEY or LLM_API_KEY")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("OpenAI API health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAI API health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (p *OpenAIProvider) GetProviderName() string {
	return "openai"
}
