package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

// GeminiProvider implements the LLM provider interface using Google Gemini
type GeminiProvider struct {
	config *config.Config
	logger logging.Logger
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.Config) *GeminiProvider {
	return &GeminiProvider{
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("provider", "gemini"),
	}
}

func (g *GeminiProvider) modelName(req models.CompletionRequest) string {
	if strings.HasPrefix(req.Model, "gemini") {
		return req.Model
	}
	if g.config.LLM.Gemini.Model != "" {
		return g.config.LLM.Gemini.Model
	}
	return "gemini-1.5-flash"
}

// Complete sends the conversation as a single prompt with the system
// messages as system instruction
func (g *GeminiProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	key := g.config.LLM.Gemini.APIKey
	if key == "" {
		return "", fmt.Errorf("Gemini API key not configured - set GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName(req))
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if system := req.SystemPrompt(); system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	var prompt []genai.Part
	for _, m := range req.Conversation() {
		prompt = append(prompt, genai.Text(m.Content))
	}
	if len(prompt) == 0 {
		return "", fmt.Errorf("empty prompt")
	}

	resp, err := model.GenerateContent(ctx, prompt...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractGeminiText(resp)
}

func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// IsHealthy checks configuration only
func (g *GeminiProvider) IsHealthy(ctx context.Context) error {
	if g.config.LLM.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured - set GEMINI_API_KEY")
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (g *GeminiProvider) GetProviderName() string {
	return "gemini"
}
