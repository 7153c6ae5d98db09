// Package prompts turns a job posting and the user's settings into chat
// completion requests, and holds the local text generators used when no
// model output is available.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

const answersSystemMessage = "You are an expert Upwork freelancer. Answer each question concisely (2-4 sentences when multiple examples are requested; otherwise 1-3), direct and specific to the job. Do not ask any questions back. No greetings, no bullets, no numbered lists, no fluff."

// AnswerSeparator delimits answers in the model output
const AnswerSeparator = "---ANSWER---"

// Composer builds completion requests. Meta-prompt overrides are read from
// the store on every call.
type Composer struct {
	store           store.Store
	model           string
	temperature     float64
	maxTokens       int
	answerMaxTokens int
}

// NewComposer creates a composer with the configured model defaults
func NewComposer(st store.Store, cfg *config.Config) *Composer {
	return &Composer{
		store:           st,
		model:           cfg.LLM.Model,
		temperature:     cfg.LLM.Temperature,
		maxTokens:       cfg.LLM.MaxTokens,
		answerMaxTokens: cfg.LLM.AnswerMaxTokens,
	}
}

// MetaPrompt returns the system instructions for a template, preferring a
// stored override
func (c *Composer) MetaPrompt(ctx context.Context, templateType string) (string, error) {
	tmpl := Get(templateType)
	if c.store == nil {
		return tmpl.MetaPrompt, nil
	}
	override, err := store.GetString(ctx, c.store, store.MetaPromptOverrideKey(tmpl.Type))
	if err != nil {
		return "", fmt.Errorf("failed to read meta prompt override: %w", err)
	}
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	return tmpl.MetaPrompt, nil
}

// CoverLetter builds the cover-letter request for an AI-mode generation
func (c *Composer) CoverLetter(ctx context.Context, job models.JobPosting, settings models.Settings) (models.CompletionRequest, error) {
	tmpl := Get(settings.PromptTemplate)
	meta, err := c.MetaPrompt(ctx, tmpl.Type)
	if err != nil {
		return models.CompletionRequest{}, err
	}

	user := fmt.Sprintf("JOB TITLE: %s\nJOB DESCRIPTION: %s\n\nGenerate a proposal using this template:\n%s\n\nReplace placeholders with specific details from the job. Keep it under 8 lines.",
		job.Title, job.Description, tmpl.Layout)

	maxTokens := c.maxTokens
	if settings.MaxTokens > 0 {
		maxTokens = settings.MaxTokens
	}

	return models.CompletionRequest{
		Model: c.modelFor(settings),
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: meta},
			{Role: models.RoleUser, Content: user},
		},
		Temperature: settings.TemperatureOr(c.temperature),
		MaxTokens:   maxTokens,
	}, nil
}

// Answers builds one request answering every question in order
func (c *Composer) Answers(job models.JobPosting, questions []models.ApplicationQuestion, settings models.Settings) models.CompletionRequest {
	var list strings.Builder
	for i, q := range questions {
		kind := "Short answer"
		if q.InputKind == models.InputLong {
			kind = "Long answer"
		}
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "%d. %s (%s)", i+1, q.Label, kind)
	}

	user := fmt.Sprintf(`Provide short, direct answers to these Upwork application questions.

JOB TITLE: %s
JOB DESCRIPTION: %s

QUESTIONS:
%s

STRICT RULES:
- Keep each answer brief: 1-3 sentences; if the prompt asks for multiple items/examples, write 2-4 sentences that cover them succinctly (no bullets).
- Be specific to the job; include concrete tech/tools if relevant.
- Do not ask any questions back.
- No bullets, no numbered lists, no salutations.

Return answers in order, one per question, separated by "%s".`, job.Title, job.Description, list.String(), AnswerSeparator)

	return models.CompletionRequest{
		Model: c.modelFor(settings),
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: answersSystemMessage},
			{Role: models.RoleUser, Content: user},
		},
		Temperature: settings.TemperatureOr(c.temperature),
		MaxTokens:   c.answerMaxTokens,
	}
}

func (c *Composer) modelFor(settings models.Settings) string {
	if m := strings.TrimSpace(settings.ModelName); m != "" {
		return m
	}
	return c.model
}

// ParseAnswers splits model output into trimmed, non-empty answers
func ParseAnswers(content string) []string {
	parts := strings.Split(content, AnswerSeparator)
	answers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			answers = append(answers, p)
		}
	}
	return answers
}

// CustomProposal returns the user's own text with the name placeholder
// filled in. Custom mode never calls a model.
func CustomProposal(settings models.Settings) string {
	text := strings.TrimSpace(settings.CustomPrompt)
	if text == "" {
		text = Get(TemplateUniversal).Layout
	}
	return strings.ReplaceAll(text, NamePlaceholder, SignatureName(settings))
}
