// Package service is the background context: it owns the session, quota
// and settings, generates text for the pages and answers the message bus.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/llm"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/prompts"
	"proposal-autofill/internal/session"
	"proposal-autofill/internal/settings"
	"proposal-autofill/internal/store"
	"proposal-autofill/internal/usage"
	"proposal-autofill/pkg/models"
)

const (
	msgLoginForLetter   = "Please log in to generate cover letters"
	msgLoginForAnswers  = "Please log in to generate question answers"
	msgAuthFailed       = "Authentication failed. Please log in again."
	msgVerifyFailed     = "Could not verify session, try again later"
	msgLimitReached     = "Usage limit reached"
	msgNoProposal       = "No AI proposal generated"
	msgNoAnswers        = "No question answers generated"
	msgLetterGenFailed  = "AI proposal generation failed"
	msgAnswersGenFailed = "Question answers generation failed"
)

// Backend is the part of the backend API used directly by message handlers
type Backend interface {
	UpdateProfile(ctx context.Context, token string, update backend.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, token string, change backend.PasswordChange) error
	Health(ctx context.Context) error
}

// Page is one open proposal page
type Page interface {
	ExtractJob() (*models.JobPosting, error)
	DetectQuestions() []models.ApplicationQuestion
	FillCoverLetter(ctx context.Context, text string) bool
}

// Pages resolves a tab ID to its page; an empty ID means the active tab
type Pages interface {
	Page(tabID string) (Page, error)
	// LoggedIn lets pages held back by an auth failure generate again
	LoggedIn()
}

// Deps are the collaborators of a Service
type Deps struct {
	Config   *config.Config
	Store    store.Store
	Session  *session.Session
	Usage    *usage.Store
	Settings *settings.Loader
	Composer *prompts.Composer
	LLM      llm.Completer
	Backend  Backend
	Pages    Pages
}

// Service is the single background instance
type Service struct {
	cfg      *config.Config
	store    store.Store
	session  *session.Session
	usage    *usage.Store
	settings *settings.Loader
	composer *prompts.Composer
	llm      llm.Completer
	backend  Backend
	pages    Pages
	validate *validator.Validate
	logger   logging.Logger
}

// New creates the service
func New(d Deps) *Service {
	return &Service{
		cfg:      d.Config,
		store:    d.Store,
		session:  d.Session,
		usage:    d.Usage,
		settings: d.Settings,
		composer: d.Composer,
		llm:      d.LLM,
		backend:  d.Backend,
		pages:    d.Pages,
		validate: validator.New(),
		logger:   logging.GetGlobalLogger().WithField("component", "service"),
	}
}

// SetPages attaches the page registry, which is built after the service
func (s *Service) SetPages(p Pages) {
	s.pages = p
}

// Load restores persisted state at startup
func (s *Service) Load(ctx context.Context) error {
	if err := s.session.Load(ctx); err != nil {
		return err
	}
	if _, err := s.usage.CheckSubscription(ctx); err != nil {
		return err
	}
	return nil
}

// Persist writes the session back to the store
func (s *Service) Persist(ctx context.Context) error {
	return s.session.Persist(ctx)
}

// Settings loads the current settings with defaults applied
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	return s.settings.Load(ctx)
}

// authorize returns the API key to send with a completion. With server-side
// keys it requires a verified session; otherwise providers use their own
// configured keys.
func (s *Service) authorize(ctx context.Context, loginMsg string) (string, *models.GenerationResult) {
	if !s.cfg.LLM.UseServerKeys {
		return "", nil
	}
	if !s.session.IsAuthenticated() {
		res := models.AuthRequiredResult(loginMsg)
		return "", &res
	}
	if err := s.session.EnsureValid(ctx); err != nil {
		s.logger.WithError(err).Warn("Token verification failed")
		res := verifyError(err)
		return "", &res
	}
	key, err := s.session.APIKey(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("API key fetch failed")
		res := models.FailureResult(apiKeyError(err))
		return "", &res
	}
	return key, nil
}

// verifyError asks for a new login only when the backend rejected the
// session; outages and transport errors stay ordinary failures.
func verifyError(err error) models.GenerationResult {
	if backend.IsUnauthorized(err) || errors.Is(err, session.ErrNotAuthenticated) {
		return models.AuthRequiredResult(msgAuthFailed)
	}
	return models.FailureResult(backend.Message(err, msgVerifyFailed))
}

func apiKeyError(err error) string {
	switch {
	case errors.Is(err, backend.ErrNoActiveKey):
		return "No active OpenAI API key found"
	case errors.Is(err, backend.ErrEncryptedKey):
		return "Server API key is encrypted and cannot be used"
	default:
		return backend.Message(err, "Failed to fetch API key: "+err.Error())
	}
}

// GenerateCoverLetter produces the cover letter for job. Custom mode
// returns the user's own text without touching the quota.
func (s *Service) GenerateCoverLetter(ctx context.Context, job models.JobPosting, st models.Settings) models.GenerationResult {
	if st.ProposalMode == models.ModeCustom {
		s.logger.Info("Using custom proposal, no AI call")
		return models.CustomLetterResult(prompts.CustomProposal(st))
	}

	snap, ok, err := s.usage.Check(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Usage check failed")
	} else if !ok {
		return models.LimitReachedResult(snap)
	}

	key, denied := s.authorize(ctx, msgLoginForLetter)
	if denied != nil {
		return *denied
	}

	job = job.Truncated(s.cfg.Orchestrator.MaxDescriptionLength)
	req, err := s.composer.CoverLetter(ctx, job, st)
	if err != nil {
		return models.FailureResult(err.Error())
	}
	req.APIKey = key

	text, err := s.llm.Complete(ctx, req)
	if err != nil {
		s.logger.WithError(err).Error("Cover letter generation failed")
		return models.FailureResult(msgLetterGenFailed)
	}
	if strings.TrimSpace(text) == "" {
		return models.FailureResult(msgNoProposal)
	}
	text = prompts.ApplySignature(text, prompts.SignatureName(st))

	recorded, err := s.usage.Record(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record usage")
	}
	return models.CoverLetterResult(text, &recorded)
}

// GenerateAnswers answers the questions in order in one completion
func (s *Service) GenerateAnswers(ctx context.Context, job models.JobPosting, questions []models.ApplicationQuestion, st models.Settings) models.GenerationResult {
	if len(questions) == 0 {
		return models.AnswersResult(nil, nil)
	}

	snap, ok, err := s.usage.Check(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Usage check failed")
	} else if !ok {
		return models.LimitReachedResult(snap)
	}

	key, denied := s.authorize(ctx, msgLoginForAnswers)
	if denied != nil {
		return *denied
	}

	job = job.Truncated(s.cfg.Orchestrator.MaxDescriptionLength)
	req := s.composer.Answers(job, questions, st)
	req.APIKey = key

	content, err := s.llm.Complete(ctx, req)
	if err != nil {
		s.logger.WithError(err).Error("Question answer generation failed")
		return models.FailureResult(msgAnswersGenFailed)
	}
	answers := prompts.ParseAnswers(content)
	if len(answers) == 0 {
		return models.FailureResult(msgNoAnswers)
	}
	if len(answers) != len(questions) {
		s.logger.Warn("Answer count mismatch", map[string]interface{}{
			"questions": len(questions),
			"answers":   len(answers),
		})
	}

	recorded, err := s.usage.Record(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record usage")
	}
	return models.AnswersResult(answers, &recorded)
}

func (s *Service) page(tabID string) (Page, error) {
	if s.pages == nil {
		return nil, fmt.Errorf("no browser pages available")
	}
	return s.pages.Page(tabID)
}
