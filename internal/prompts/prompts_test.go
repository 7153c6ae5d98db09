package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

func testJob() models.JobPosting {
	return models.JobPosting{
		Title:       "React dashboard for logistics startup",
		Description: "We need a React and Node.js developer to build a dashboard backed by our REST API on AWS. 3+ years of experience required.",
	}
}

func TestTemplates(t *testing.T) {
	assert.Len(t, All(), 6)
	assert.Equal(t, TemplateUniversal, All()[0].Type)
	assert.Equal(t, "Software/Apps Development", Get(TemplateSoftware).Name)
	assert.Equal(t, TemplateUniversal, Get("unknown").Type)
	assert.True(t, Known(TemplateCustom))
	assert.False(t, Known("poetry"))

	for _, tmpl := range All() {
		assert.NotEmpty(t, tmpl.MetaPrompt, tmpl.Type)
		assert.Contains(t, tmpl.Layout, NamePlaceholder, tmpl.Type)
	}
}

func TestComposer_CoverLetter(t *testing.T) {
	cfg := config.Default()
	c := NewComposer(store.NewMemoryStore(), cfg)

	req, err := c.CoverLetter(context.Background(), testJob(), models.Settings{PromptTemplate: TemplateSoftware})
	require.NoError(t, err)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, models.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, Get(TemplateSoftware).MetaPrompt, req.Messages[0].Content)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "JOB TITLE: React dashboard"))
	assert.Contains(t, req.Messages[1].Content, Get(TemplateSoftware).Layout)
	assert.Contains(t, req.Messages[1].Content, "Keep it under 8 lines.")
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
}

func TestComposer_CoverLetterUsesOverrideAndSettings(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.MetaPromptOverrideKey(TemplateData), "Write like a statistician."))

	c := NewComposer(st, config.Default())
	req, err := c.CoverLetter(ctx, testJob(), models.Settings{
		PromptTemplate: TemplateData,
		ModelName:      "gpt-4o-mini",
		Temperature:    models.Float64(0.2),
		MaxTokens:      300,
	})
	require.NoError(t, err)

	assert.Equal(t, "Write like a statistician.", req.SystemPrompt())
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, 300, req.MaxTokens)
}

func TestComposer_Answers(t *testing.T) {
	c := NewComposer(nil, config.Default())
	req := c.Answers(testJob(), []models.ApplicationQuestion{
		{Label: "Describe a similar dashboard you built", InputKind: models.InputLong},
		{Label: "What is your hourly rate?", InputKind: models.InputShort},
	}, models.Settings{})

	user := req.Conversation()[0].Content
	assert.Contains(t, user, "1. Describe a similar dashboard you built (Long answer)\n2. What is your hourly rate? (Short answer)")
	assert.Contains(t, user, `separated by "---ANSWER---"`)
	assert.Contains(t, req.SystemPrompt(), "expert Upwork freelancer")
	assert.Equal(t, 2000, req.MaxTokens)
}

func TestParseAnswers(t *testing.T) {
	got := ParseAnswers("  First answer.\n---ANSWER---\n\n---ANSWER--- Second answer. ")
	assert.Equal(t, []string{"First answer.", "Second answer."}, got)
	assert.Empty(t, ParseAnswers("   "))
}

func TestProperNameAndSignature(t *testing.T) {
	assert.Equal(t, "jane D.", ProperName("jane", "doe"))
	assert.Equal(t, "Jane", ProperName("Jane", ""))
	assert.Equal(t, "Your Name", ProperName("", "Doe"))

	assert.Equal(t, "Jane D.", SignatureName(models.Settings{FirstName: "Jane", LastName: "doe", YourName: "JD"}))
	assert.Equal(t, "JD", SignatureName(models.Settings{YourName: "JD"}))

	assert.Equal(t, "Great fit.\nThanks,\nJane D.", ApplySignature("Great fit.\nThanks, Jane D.", "Jane D."))
	assert.Equal(t, "thank you,\nJane D.", ApplySignature("thank you,   Jane D.", "Jane D."))
	assert.Equal(t, "Best regards,\nJane D.", ApplySignature("Best regards,\n[Your Name]", "Jane D."))
}

func TestCustomProposal(t *testing.T) {
	got := CustomProposal(models.Settings{
		CustomPrompt: "  Hello, I can help.\n\nBest,\n[Your Name]  ",
		FirstName:    "Sam",
		LastName:     "Lee",
	})
	assert.Equal(t, "Hello, I can help.\n\nBest,\nSam L.", got)

	def := CustomProposal(models.Settings{YourName: "Sam"})
	assert.True(t, strings.HasSuffix(def, "Best regards,\nSam"))
	assert.NotContains(t, def, NamePlaceholder)
}

func TestFallbackHeuristics(t *testing.T) {
	assert.Equal(t, 3, ExperienceYears("Must have 3+ years of experience"))
	assert.Equal(t, 8, ExperienceYears("Senior Go engineer"))
	assert.Equal(t, 2, ExperienceYears("Junior role"))
	assert.Equal(t, 5, ExperienceYears(""))

	assert.Equal(t, "frontend development", Field("React developer wanted"))
	assert.Equal(t, "e-commerce development", Field("Looking for a Shopify expert to set up a store"))
	assert.Equal(t, "web development", Field("Help with a small project"))

	assert.Equal(t, []string{"React", "Node.js", "AWS"}, Skills("React, Node.js and Docker with AWS"))
	assert.Empty(t, Skills("Knitting patterns"))
}

func TestFallbackProposal(t *testing.T) {
	text := FallbackProposal(testJob(), "Jane D.")

	assert.True(t, strings.HasPrefix(text, "I have 3+ years of experience in frontend development"))
	assert.Contains(t, text, "React dashboard for logistics startup project")
	assert.Contains(t, text, "I've worked extensively with React, Node.js, AWS and")
	assert.True(t, strings.HasSuffix(text, "Best regards,\nJane D."))

	generic := FallbackProposal(models.JobPosting{}, "")
	assert.Contains(t, generic, "over 8 years of experience")
	assert.True(t, strings.HasSuffix(generic, "Thanks,\nYour Name"))
}
