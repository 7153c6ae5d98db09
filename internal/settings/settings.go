// Package settings reads and writes the user's generation preferences.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/prompts"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

// Loader loads settings with defaults applied. Stored settings are only
// written by Save.
type Loader struct {
	store    store.Store
	validate *validator.Validate
	defaults models.Settings
}

// NewLoader creates a loader whose defaults follow the LLM configuration
func NewLoader(st store.Store, cfg *config.Config) *Loader {
	return &Loader{
		store:    st,
		validate: validator.New(),
		defaults: Defaults(cfg),
	}
}

// Defaults returns the settings used when nothing is stored
func Defaults(cfg *config.Config) models.Settings {
	return models.Settings{
		ProposalMode:        models.ModeAI,
		PromptTemplate:      prompts.TemplateUniversal,
		ModelName:           cfg.LLM.Model,
		Temperature:         models.Float64(cfg.LLM.Temperature),
		AutoAnswerQuestions: models.Bool(true),
		Enabled:             models.Bool(true),
		AutoFill:            models.Bool(true),
	}
}

// Load returns the stored settings merged over the defaults
func (l *Loader) Load(ctx context.Context) (models.Settings, error) {
	var stored models.Settings
	err := l.store.Get(ctx, store.KeySettings, &stored)
	if errors.Is(err, store.ErrNotFound) {
		return l.defaults, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return l.merge(stored), nil
}

func (l *Loader) merge(s models.Settings) models.Settings {
	d := l.defaults
	if s.ProposalMode == "" {
		s.ProposalMode = d.ProposalMode
	}
	if s.PromptTemplate == "" {
		s.PromptTemplate = d.PromptTemplate
	}
	if strings.TrimSpace(s.ModelName) == "" {
		s.ModelName = d.ModelName
	}
	if s.Temperature == nil {
		s.Temperature = d.Temperature
	}
	if s.AutoAnswerQuestions == nil {
		s.AutoAnswerQuestions = d.AutoAnswerQuestions
	}
	if s.Enabled == nil {
		s.Enabled = d.Enabled
	}
	if s.AutoFill == nil {
		s.AutoFill = d.AutoFill
	}
	return s
}

// Validate checks settings against their field rules
func (l *Loader) Validate(s models.Settings) error {
	if err := l.validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s: failed %s", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// Save validates and stores settings
func (l *Loader) Save(ctx context.Context, s models.Settings) error {
	if err := l.Validate(s); err != nil {
		return err
	}
	if err := l.store.Set(ctx, store.KeySettings, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SetMetaPromptOverride stores or, for an empty prompt, removes the
// override for a template
func (l *Loader) SetMetaPromptOverride(ctx context.Context, templateType, prompt string) error {
	if !prompts.Known(templateType) {
		return fmt.Errorf("unknown template: %s", templateType)
	}
	key := store.MetaPromptOverrideKey(templateType)
	if strings.TrimSpace(prompt) == "" {
		return l.store.Delete(ctx, key)
	}
	return l.store.Set(ctx, key, prompt)
}
