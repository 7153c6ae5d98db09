package models

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one message of a chat-completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral chat completion
type CompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	// APIKey overrides the provider's configured key for this call
	APIKey string `json:"-"`
}

// SystemPrompt joins the system messages
func (r CompletionRequest) SystemPrompt() string {
	out := ""
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// Conversation returns the non-system messages
func (r CompletionRequest) Conversation() []ChatMessage {
	out := make([]ChatMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}
