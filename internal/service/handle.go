package service

import (
	"context"
	"fmt"
	"strings"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

const minPasswordLength = 6

type handlerFunc func(s *Service, ctx context.Context, req models.MessageRequest) models.MessageResponse

var handlers = map[string]handlerFunc{
	models.ActionRegister:                (*Service).handleRegister,
	models.ActionLogin:                   (*Service).handleLogin,
	models.ActionLogout:                  (*Service).handleLogout,
	models.ActionGetAuthState:            (*Service).handleGetAuthState,
	models.ActionGetUsage:                (*Service).handleGetUsage,
	models.ActionGetUsageInfo:            (*Service).handleGetUsageInfo,
	models.ActionResetUsage:              (*Service).handleResetUsage,
	models.ActionCheckSubscription:       (*Service).handleCheckSubscription,
	models.ActionGetUserProfile:          (*Service).handleGetUserProfile,
	models.ActionUpdateProfile:           (*Service).handleUpdateProfile,
	models.ActionChangePassword:          (*Service).handleChangePassword,
	models.ActionGetProposalStats:        (*Service).handleGetProposalStats,
	models.ActionIncrementProposal:       (*Service).handleIncrementProposal,
	models.ActionGenerateCoverLetter:     (*Service).handleGenerateCoverLetter,
	models.ActionGenerateQuestionAnswers: (*Service).handleGenerateQuestionAnswers,
	models.ActionExtractJobData:          (*Service).handleExtractJobData,
	models.ActionFillCoverLetter:         (*Service).handleFillCoverLetter,
	models.ActionDetectQuestions:         (*Service).handleDetectQuestions,
	models.ActionGetAPIKey:               (*Service).handleGetAPIKey,
	models.ActionTestConnection:          (*Service).handleTestConnection,
	models.ActionPageReady:               (*Service).handlePageReady,
	models.ActionGetSettings:             (*Service).handleGetSettings,
	models.ActionSaveSettings:            (*Service).handleSaveSettings,
	models.ActionSetMetaPromptOverride:   (*Service).handleSetMetaPromptOverride,
}

// Actions lists every action Handle understands
func Actions() []string {
	out := make([]string, 0, len(handlers))
	for a := range handlers {
		out = append(out, a)
	}
	return out
}

// Handle dispatches one message bus request. It never returns an error:
// every failure is reported in the response.
func (s *Service) Handle(ctx context.Context, req models.MessageRequest) (resp models.MessageResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Message handler panicked", map[string]interface{}{
				"action": req.Action,
				"panic":  fmt.Sprint(r),
			})
			resp = models.Fail(fmt.Sprintf("Internal error: %v", r))
		}
	}()

	if strings.TrimSpace(req.Action) == "" {
		return models.Fail("Invalid request")
	}
	h, ok := handlers[req.Action]
	if !ok {
		return models.Fail("Unknown action: " + req.Action)
	}

	s.logger.Debug("Handling message", map[string]interface{}{"action": req.Action, "tab_id": req.TabID})
	return h(s, ctx, req)
}

func (s *Service) handleRegister(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if req.UserData == nil {
		return models.Fail("Invalid registration request - missing user data")
	}
	if err := s.validate.Struct(req.UserData); err != nil {
		return models.Fail("Missing required fields: email, password, firstName, lastName")
	}
	user, err := s.session.Register(ctx, *req.UserData)
	if err != nil {
		s.logger.WithError(err).Warn("Registration failed")
		return models.Fail("Registration failed: " + backend.Message(err, err.Error()))
	}
	resp := models.OK()
	resp.User = user
	resp.Message = "Registration successful. Please log in."
	return resp
}

func (s *Service) handleLogin(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if req.Credentials == nil {
		return models.Fail("Invalid login request - missing credentials")
	}
	if err := s.validate.Struct(req.Credentials); err != nil {
		return models.Fail("Missing required fields: email, password")
	}

	result, err := s.session.Login(ctx, *req.Credentials)
	if err != nil {
		s.logger.WithError(err).Warn("Login failed")
		return models.Fail(backend.Message(err, "Login failed: "+err.Error()))
	}

	if s.pages != nil {
		s.pages.LoggedIn()
	}

	resp := models.OK()
	if result.Stats != nil {
		snap, err := s.usage.Sync(ctx, result.Stats)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to store usage after login")
		} else {
			resp.Usage = &snap
		}
	}
	state := s.session.State()
	resp.AuthState = &state
	resp.User = result.User
	resp.IsAuthenticated = models.Bool(true)
	if len(result.Warnings) > 0 {
		resp.Message = "Login successful but some data failed to load"
	}
	return resp
}

func (s *Service) handleLogout(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	if err := s.session.Logout(ctx); err != nil {
		return models.Fail(err.Error())
	}
	if _, err := s.usage.Reset(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to reset usage on logout")
	}
	return models.OK()
}

func (s *Service) handleGetAuthState(_ context.Context, _ models.MessageRequest) models.MessageResponse {
	state := s.session.State()
	resp := models.OK()
	resp.IsAuthenticated = models.Bool(state.Authenticated)
	resp.AuthState = &state
	resp.User = state.User
	return resp
}

func (s *Service) handleGetUsage(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, err := s.usage.Snapshot(ctx)
	if err != nil {
		return models.Fail("Failed to get usage")
	}
	resp := models.OK()
	resp.Usage = &snap
	return resp
}

func (s *Service) handleGetUsageInfo(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, _, err := s.usage.Check(ctx)
	if err != nil {
		return models.Fail("Failed to get usage info")
	}
	resp := models.OK()
	resp.Data = models.UsageLimits{Limits: snap}
	resp.Usage = &snap
	return resp
}

func (s *Service) handleResetUsage(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, err := s.usage.Reset(ctx)
	if err != nil {
		return models.Fail(err.Error())
	}
	resp := models.OK()
	resp.Usage = &snap
	return resp
}

func (s *Service) handleCheckSubscription(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, err := s.usage.CheckSubscription(ctx)
	if err != nil {
		return models.Fail("Failed to check subscription")
	}
	resp := models.OK()
	resp.Subscription = &snap
	return resp
}

func (s *Service) handleGetUserProfile(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	if !s.session.IsAuthenticated() {
		return models.Fail("User not authenticated")
	}
	user, stats, err := s.session.RefreshAccount(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to fetch profile")
		return models.Fail(backend.Message(err, "Failed to fetch profile"))
	}
	if stats != nil {
		if _, err := s.usage.Sync(ctx, stats); err != nil {
			s.logger.WithError(err).Warn("Failed to store usage with profile")
		}
	}
	resp := models.OK()
	resp.User = user
	return resp
}

func (s *Service) handleUpdateProfile(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if !s.session.IsAuthenticated() {
		return models.Fail("User not authenticated")
	}
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return models.Fail("First name and last name are required")
	}
	user, err := s.backend.UpdateProfile(ctx, s.session.Token(), backend.ProfileUpdate{FirstName: first, LastName: last})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to update profile")
		return models.Fail(backend.Message(err, "Failed to update profile"))
	}
	if err := s.session.SetUser(ctx, user); err != nil {
		s.logger.WithError(err).Warn("Failed to persist updated profile")
	}
	resp := models.OK()
	resp.User = user
	return resp
}

func (s *Service) handleChangePassword(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if !s.session.IsAuthenticated() {
		return models.Fail("User not authenticated")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return models.Fail("Current password and new password are required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return models.Fail("New password must be at least 6 characters long")
	}
	change := backend.PasswordChange{CurrentPassword: req.CurrentPassword, NewPassword: req.NewPassword}
	if err := s.backend.ChangePassword(ctx, s.session.Token(), change); err != nil {
		s.logger.WithError(err).Warn("Failed to change password")
		return models.Fail(backend.Message(err, "Failed to change password"))
	}
	resp := models.OK()
	resp.Message = "Password changed successfully"
	return resp
}

func (s *Service) handleGetProposalStats(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, _, err := s.usage.Check(ctx)
	if err != nil {
		return models.Fail("Failed to get proposal statistics")
	}
	resp := models.OK()
	resp.Data = models.UsageLimits{Limits: snap}
	return resp
}

func (s *Service) handleIncrementProposal(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	snap, err := s.usage.Record(ctx)
	if err != nil {
		return models.Fail("Failed to increment proposal")
	}
	resp := models.OK()
	resp.Data = models.UsageLimits{Limits: snap}
	resp.Usage = &snap
	return resp
}

func (s *Service) handleGenerateCoverLetter(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return models.Fail("Failed to generate cover letter")
	}
	job := models.JobPosting{Title: req.JobTitle, Description: req.JobDescription, SourceURL: req.URL}
	res := s.GenerateCoverLetter(ctx, job, st)
	return resultResponse(res, func(r *models.MessageResponse) { r.CoverLetter = res.Text })
}

func (s *Service) handleGenerateQuestionAnswers(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if len(req.Questions) == 0 {
		return models.Fail("No questions provided")
	}
	if err := s.validate.Struct(req); err != nil {
		return models.Fail("Invalid questions payload")
	}
	st, err := s.settings.Load(ctx)
	if err != nil {
		return models.Fail("Failed to generate question answers")
	}
	questions := make([]models.ApplicationQuestion, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = q.ToQuestion()
	}
	job := models.JobPosting{Title: req.JobTitle, Description: req.JobDescription, SourceURL: req.URL}
	res := s.GenerateAnswers(ctx, job, questions, st)
	return resultResponse(res, func(r *models.MessageResponse) { r.Answers = res.Answers })
}

func resultResponse(res models.GenerationResult, onSuccess func(*models.MessageResponse)) models.MessageResponse {
	switch res.Kind {
	case models.GenerationSuccess:
		resp := models.OK()
		resp.Usage = res.Usage
		onSuccess(&resp)
		return resp
	case models.GenerationLimitReached:
		resp := models.Fail(msgLimitReached)
		resp.LimitReached = true
		resp.Usage = res.Usage
		return resp
	default:
		return models.Fail(res.Reason)
	}
}

func (s *Service) handleExtractJobData(_ context.Context, req models.MessageRequest) models.MessageResponse {
	p, err := s.page(req.TabID)
	if err != nil {
		return models.Fail(err.Error())
	}
	job, err := p.ExtractJob()
	if err != nil {
		return models.Fail(err.Error())
	}
	resp := models.OK()
	resp.Job = job
	return resp
}

func (s *Service) handleDetectQuestions(_ context.Context, req models.MessageRequest) models.MessageResponse {
	p, err := s.page(req.TabID)
	if err != nil {
		return models.Fail(err.Error())
	}
	resp := models.OK()
	resp.Questions = p.DetectQuestions()
	return resp
}

func (s *Service) handleFillCoverLetter(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if strings.TrimSpace(req.Text) == "" {
		return models.Fail("No cover letter text provided")
	}
	p, err := s.page(req.TabID)
	if err != nil {
		return models.Fail(err.Error())
	}
	filled := p.FillCoverLetter(ctx, req.Text)
	resp := models.OK()
	resp.Filled = models.Bool(filled)
	if !filled {
		resp.Message = "Cover letter field not found"
	}
	return resp
}

func (s *Service) handleGetAPIKey(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	if !s.session.IsAuthenticated() {
		return models.Fail("User not authenticated")
	}
	key, err := s.session.APIKey(ctx)
	if err != nil {
		return models.Fail(apiKeyError(err))
	}
	resp := models.OK()
	resp.APIKey = utils.MaskSecret(key)
	return resp
}

func (s *Service) handleTestConnection(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	if err := s.backend.Health(ctx); err != nil {
		s.logger.WithError(err).Warn("Backend connection test failed")
		return models.Fail("Backend connection failed")
	}
	resp := models.OK()
	resp.Message = "Backend connection successful"
	return resp
}

func (s *Service) handlePageReady(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if err := s.store.Set(ctx, store.KeyPageReady, true); err != nil {
		return models.Fail("Failed to handle page ready")
	}
	if req.JobTitle != "" || req.JobDescription != "" {
		job := models.JobPosting{Title: req.JobTitle, Description: req.JobDescription, SourceURL: req.URL}
		if err := s.store.Set(ctx, store.KeyCurrentJob, job); err != nil {
			return models.Fail("Failed to handle page ready")
		}
	}
	return models.OK()
}

func (s *Service) handleGetSettings(ctx context.Context, _ models.MessageRequest) models.MessageResponse {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return models.Fail("Failed to load settings")
	}
	resp := models.OK()
	resp.Settings = &st
	return resp
}

func (s *Service) handleSaveSettings(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if req.Settings == nil {
		return models.Fail("No settings provided")
	}
	if err := s.settings.Save(ctx, *req.Settings); err != nil {
		return models.Fail(err.Error())
	}
	st, err := s.settings.Load(ctx)
	if err != nil {
		return models.Fail("Failed to load settings")
	}
	resp := models.OK()
	resp.Settings = &st
	return resp
}

func (s *Service) handleSetMetaPromptOverride(ctx context.Context, req models.MessageRequest) models.MessageResponse {
	if err := s.settings.SetMetaPromptOverride(ctx, req.TemplateType, req.MetaPrompt); err != nil {
		return models.Fail(err.Error())
	}
	return models.OK()
}
