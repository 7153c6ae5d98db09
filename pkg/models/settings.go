package models

// ProposalMode selects between AI generation and the user's own text
type ProposalMode string

const (
	ModeAI     ProposalMode = "ai"
	ModeCustom ProposalMode = "custom"
)

// Settings is the user-editable configuration read at the start of each generation
type Settings struct {
	ProposalMode        ProposalMode `json:"proposalMode" validate:"omitempty,oneof=ai custom"`
	PromptTemplate      string       `json:"promptTemplate" validate:"omitempty,oneof=universal software marketing design data custom"`
	CustomPrompt        string       `json:"customPrompt"`
	YourName            string       `json:"yourName" validate:"max=100"`
	FirstName           string       `json:"firstName" validate:"max=100"`
	LastName            string       `json:"lastName" validate:"max=100"`
	ModelName           string       `json:"openaiModel"`
	Temperature         *float64     `json:"openaiTemperature,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxTokens           int          `json:"maxTokens,omitempty" validate:"omitempty,gte=1,lte=8192"`
	AutoAnswerQuestions *bool        `json:"autoAnswerQuestions,omitempty"`
	Enabled             *bool        `json:"enabled,omitempty"`
	AutoFill            *bool        `json:"autoFill,omitempty"`
}

// TemperatureOr returns the configured temperature or def
func (s Settings) TemperatureOr(def float64) float64 {
	if s.Temperature == nil {
		return def
	}
	return *s.Temperature
}

// AnswerQuestions reports whether screening questions should be auto-answered
func (s Settings) AnswerQuestions() bool {
	return s.AutoAnswerQuestions == nil || *s.AutoAnswerQuestions
}

// IsEnabled reports whether the filler is switched on
func (s Settings) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Bool is a helper for optional settings fields
func Bool(v bool) *bool { return &v }

// Float64 is a helper for optional settings fields
func Float64(v float64) *float64 { return &v }
