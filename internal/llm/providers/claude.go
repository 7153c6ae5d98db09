package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.Claude.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("provider", "claude"),
	}
}

func (cp *ClaudeProvider) model(req models.CompletionRequest) anthropic.Model {
	if strings.HasPrefix(req.Model, "claude") {
		return anthropic.Model(req.Model)
	}
	if cp.config.LLM.Claude.Model != "" {
		return anthropic.Model(cp.config.LLM.Claude.Model)
	}
	return anthropic.ModelClaude3_7SonnetLatest
}

// Complete sends the conversation to the Messages API
func (cp *ClaudeProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if cp.config.LLM.Claude.APIKey == "" {
		return "", fmt.Errorf("Claude API key not configured - set ANTHROPIC_API_KEY")
	}

	startTime := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = cp.config.LLM.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       cp.model(req),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}

	if system := req.SystemPrompt(); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, m := range req.Conversation() {
		role := anthropic.MessageParamRoleUser
		if m.Role == models.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: m.Content},
			}},
			Role: role,
		})
	}

	response, err := cp.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var parts []string
	for _, content := range response.Content {
		if text := content.AsText().Text; text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content in Claude response")
	}

	cp.logger.Debug("Claude completion finished", map[string]interface{}{
		"model":           string(params.Model),
		"processing_time": time.Since(startTime).String(),
	})

	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.Claude.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set ANTHROPIC_API_KEY")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     cp.model(models.CompletionRequest{}),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}
