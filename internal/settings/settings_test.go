package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

func TestLoad_Defaults(t *testing.T) {
	l := NewLoader(store.NewMemoryStore(), config.Default())

	s, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeAI, s.ProposalMode)
	assert.Equal(t, "universal", s.PromptTemplate)
	assert.Equal(t, "gpt-3.5-turbo", s.ModelName)
	assert.InDelta(t, 0.7, s.TemperatureOr(0), 1e-9)
	assert.True(t, s.AnswerQuestions())
	assert.True(t, s.IsEnabled())
}

func TestLoad_MergesWithoutWriting(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.KeySettings, models.Settings{
		PromptTemplate:      "design",
		AutoAnswerQuestions: models.Bool(false),
	}))
	l := NewLoader(st, config.Default())

	s, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "design", s.PromptTemplate)
	assert.False(t, s.AnswerQuestions())
	assert.Equal(t, "gpt-3.5-turbo", s.ModelName)

	var raw models.Settings
	require.NoError(t, st.Get(ctx, store.KeySettings, &raw))
	assert.Empty(t, raw.ModelName, "stored settings untouched")
}

func TestSave_Validates(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(store.NewMemoryStore(), config.Default())

	err := l.Save(ctx, models.Settings{Temperature: models.Float64(1.4)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Temperature")

	assert.Error(t, l.Save(ctx, models.Settings{PromptTemplate: "poetry"}))
	assert.Error(t, l.Save(ctx, models.Settings{ProposalMode: "manual"}))

	require.NoError(t, l.Save(ctx, models.Settings{ProposalMode: models.ModeCustom, CustomPrompt: "Hi"}))
	s, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModeCustom, s.ProposalMode)
}

func TestSetMetaPromptOverride(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	l := NewLoader(st, config.Default())

	require.NoError(t, l.SetMetaPromptOverride(ctx, "software", "Be terse."))
	got, err := store.GetString(ctx, st, store.MetaPromptOverrideKey("software"))
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", got)

	require.NoError(t, l.SetMetaPromptOverride(ctx, "software", ""))
	got, err = store.GetString(ctx, st, store.MetaPromptOverrideKey("software"))
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, l.SetMetaPromptOverride(ctx, "poetry", "x"))
}
