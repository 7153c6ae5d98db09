package llm

import (
	"fmt"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/llm/providers"
)

// LLMFactory creates LLM provider instances
type LLMFactory struct {
	config *config.Config
}

// NewLLMFactory creates a new LLM factory instance
func NewLLMFactory(cfg *config.Config) *LLMFactory {
	return &LLMFactory{
		config: cfg,
	}
}

// CreateProvider creates the named provider
func (f *LLMFactory) CreateProvider(name string) (LLMProvider, error) {
	switch name {
	case "openai":
		return providers.NewOpenAIProvider(f.config), nil
	case "claude":
		return providers.NewClaudeProvider(f.config), nil
	case "gemini":
		return providers.NewGeminiProvider(f.config), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", name)
	}
}

// GetSupportedProviders returns a list of supported LLM providers
func (f *LLMFactory) GetSupportedProviders() []string {
	return []string{"openai", "claude", "gemini"}
}
