package models

import "proposal-autofill/pkg/utils"

// JobPosting is the job data pulled from an application page.
// It is produced once per page visit and never mutated afterwards.
type JobPosting struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

// Truncated returns a copy whose description holds at most max runes
func (j JobPosting) Truncated(max int) JobPosting {
	j.Description = utils.TruncateRunes(j.Description, max)
	return j
}

// InputKind distinguishes single-line from multi-line answer fields
type InputKind string

const (
	InputShort InputKind = "short"
	InputLong  InputKind = "long"
)

// ApplicationQuestion is an extra screening field on the proposal form.
// FieldKey is a lookup key into the page, not a reference to the element.
type ApplicationQuestion struct {
	FieldKey  string    `json:"field_key"`
	Label     string    `json:"label"`
	InputKind InputKind `json:"input_kind"`
	Required  bool      `json:"required"`
}

// QuestionPayload is the wire form of a question sent to generateQuestionAnswers
type QuestionPayload struct {
	Label string `json:"label" validate:"required"`
	Type  string `json:"type"`
}

// ToQuestion converts the wire payload, treating "textarea" as a long answer
func (q QuestionPayload) ToQuestion() ApplicationQuestion {
	kind := InputShort
	if q.Type == "textarea" || q.Type == string(InputLong) {
		kind = InputLong
	}
	return ApplicationQuestion{Label: q.Label, InputKind: kind}
}
