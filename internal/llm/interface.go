package llm

import (
	"context"

	"proposal-autofill/pkg/models"
)

// LLMProvider defines the interface for chat-completion providers
type LLMProvider interface {
	// Complete returns the assistant text for req
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)

	// IsHealthy checks if the LLM provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}

// Completer is the part of the manager the generator depends on
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)
}
