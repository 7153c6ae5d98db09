package models

// GenerationKind tags a GenerationResult
type GenerationKind int

const (
	GenerationSuccess GenerationKind = iota
	GenerationLimitReached
	GenerationFailure
	GenerationAuthRequired
)

func (k GenerationKind) String() string {
	switch k {
	case GenerationSuccess:
		return "success"
	case GenerationLimitReached:
		return "limit_reached"
	case GenerationFailure:
		return "failure"
	case GenerationAuthRequired:
		return "auth_required"
	default:
		return "unknown"
	}
}

// GenerationResult is the outcome of one call to the prompt/backend client.
// Only the fields relevant to Kind are set.
type GenerationResult struct {
	Kind    GenerationKind `json:"kind"`
	Text    string         `json:"text,omitempty"`
	Answers []string       `json:"answers,omitempty"`
	Usage   *UsageSnapshot `json:"usage,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	// Custom marks the user's own text, which is written at basic priority
	Custom bool `json:"custom,omitempty"`
}

func CoverLetterResult(text string, usage *UsageSnapshot) GenerationResult {
	return GenerationResult{Kind: GenerationSuccess, Text: text, Usage: usage}
}

// CustomLetterResult wraps custom-mode text; it consumes no quota
func CustomLetterResult(text string) GenerationResult {
	return GenerationResult{Kind: GenerationSuccess, Text: text, Custom: true}
}

func AnswersResult(answers []string, usage *UsageSnapshot) GenerationResult {
	return GenerationResult{Kind: GenerationSuccess, Answers: answers, Usage: usage}
}

func LimitReachedResult(usage UsageSnapshot) GenerationResult {
	return GenerationResult{Kind: GenerationLimitReached, Usage: &usage, Reason: "Usage limit reached"}
}

func FailureResult(reason string) GenerationResult {
	return GenerationResult{Kind: GenerationFailure, Reason: reason}
}

func AuthRequiredResult(reason string) GenerationResult {
	return GenerationResult{Kind: GenerationAuthRequired, Reason: reason}
}

// OK reports a successful generation
func (r GenerationResult) OK() bool {
	return r.Kind == GenerationSuccess
}
