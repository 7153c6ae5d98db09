package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/api/handlers"
	"proposal-autofill/internal/browser"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/pkg/models"
)

const applyURL = "https://www.upwork.com/ab/proposals/job/~02/apply/"

const applyPage = `<html><body>
<h1 data-test="job-title">Data pipeline for retail analytics</h1>
<div class="job-description">We need an engineer to build nightly ETL jobs that pull orders from three regional databases, clean them and load a warehouse for the BI team.</div>
<form><textarea name="coverLetter"></textarea></form>
</body></html>`

type fakeDispatcher struct {
	last models.MessageRequest
	resp models.MessageResponse
}

func (f *fakeDispatcher) Handle(_ context.Context, req models.MessageRequest) models.MessageResponse {
	f.last = req
	return f.resp
}

type fakeMeta struct{}

func (fakeMeta) MetaPrompt(_ context.Context, t string) (string, error) {
	return "meta for " + t, nil
}

type stubGen struct{ result models.GenerationResult }

func (g stubGen) Settings(context.Context) (models.Settings, error) {
	return models.Settings{AutoAnswerQuestions: models.Bool(false)}, nil
}

func (g stubGen) GenerateCoverLetter(context.Context, models.JobPosting, models.Settings) models.GenerationResult {
	return g.result
}

func (g stubGen) GenerateAnswers(context.Context, models.JobPosting, []models.ApplicationQuestion, models.Settings) models.GenerationResult {
	return models.AnswersResult(nil, nil)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Readiness.PollInterval = time.Millisecond
	cfg.Readiness.SettleDelay = 0
	cfg.Readiness.MaxPolls = 2
	cfg.Fill.ReassertAttempts = 0
	cfg.Orchestrator.ExtractionRetryDelay = time.Millisecond
	cfg.Orchestrator.FieldRetryDelay = time.Millisecond
	return cfg
}

type env struct {
	e    *echo.Echo
	disp *fakeDispatcher
	tabs *browser.Registry
}

func newEnv(t *testing.T, gen stubGen, checks map[string]handlers.Check, mutate ...func(*config.Config)) *env {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	disp := &fakeDispatcher{resp: models.OK()}
	reg := browser.NewRegistry(cfg, nil, gen)
	t.Cleanup(func() { _ = reg.CloseAll() })

	e := echo.New()
	SetupRoutes(e, cfg, Deps{Dispatcher: disp, MetaPrompter: fakeMeta{}, Tabs: reg, Checks: checks})
	return &env{e: e, disp: disp, tabs: reg}
}

func (v *env) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	v := newEnv(t, stubGen{}, map[string]handlers.Check{
		"store": func(context.Context) error { return nil },
	})

	rec := v.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = v.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newEnv(t, stubGen{}, map[string]handlers.Check{
		"backend": func(context.Context) error { return errors.New("connection refused") },
	})
	rec = failing.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "connection refused", health.Checks["backend"])
}

func TestMessagesRoute(t *testing.T) {
	v := newEnv(t, stubGen{}, nil)
	v.disp.resp = models.MessageResponse{Success: false, Error: "Usage limit reached", LimitReached: true}

	rec := v.do(http.MethodPost, "/api/v1/messages", `{"action":"generateCoverLetter","jobTitle":"ETL"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "generateCoverLetter", v.disp.last.Action)
	assert.Equal(t, "ETL", v.disp.last.JobTitle)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.LimitReached)

	rec = v.do(http.MethodPost, "/api/v1/messages", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageAndTemplatesRoutes(t *testing.T) {
	v := newEnv(t, stubGen{}, nil)
	snap := models.NewUsageSnapshot(50)
	v.disp.resp = models.MessageResponse{Success: true, Data: models.UsageLimits{Limits: snap}}

	rec := v.do(http.MethodGet, "/api/v1/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ActionGetUsageInfo, v.disp.last.Action)
	assert.Contains(t, rec.Body.String(), `"remaining":50`)

	rec = v.do(http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meta for software")

	rec = v.do(http.MethodPut, "/api/v1/templates/poetry/meta-prompt", `{"meta_prompt":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	v.disp.resp = models.OK()
	rec = v.do(http.MethodPut, "/api/v1/templates/design/meta-prompt", `{"meta_prompt":"Keep it visual."}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "design", v.disp.last.TemplateType)
	assert.Equal(t, "Keep it visual.", v.disp.last.MetaPrompt)
}

func TestTabRoutes(t *testing.T) {
	v := newEnv(t, stubGen{result: models.CoverLetterResult("Pipelines are my thing.", nil)}, nil)
	doc := dom.MustParseHTML(applyPage, applyURL)
	tab, err := v.tabs.Attach(doc, false)
	require.NoError(t, err)

	rec := v.do(http.MethodGet, "/api/v1/tabs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(http.MethodGet, "/api/v1/tabs/9b2f0f0e-8c1e-4a57-9d1e-3f5a8c2b7d10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.do(http.MethodPost, "/api/v1/tabs/"+tab.ID+"/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run handlers.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "generated", string(run.Report.Outcome))
	assert.Equal(t, "Pipelines are my thing.", dom.First(doc, "textarea").Value())

	rec = v.do(http.MethodPost, "/api/v1/tabs/"+tab.ID+"/fill", `{"text":"My own words"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "My own words", dom.First(doc, "textarea").Value())

	rec = v.do(http.MethodPost, "/api/v1/tabs/"+tab.ID+"/fill", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(http.MethodGet, "/api/v1/tabs/"+tab.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"generated":true`)

	rec = v.do(http.MethodGet, "/api/v1/tabs/"+tab.ID+"/questions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = v.do(http.MethodGet, "/api/v1/tabs/"+tab.ID+"/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs handlers.RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "SUCCESS", string(runs.Runs[0].Status))

	rec = v.do(http.MethodGet, "/api/v1/runs/"+runs.Runs[0].RunID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = v.do(http.MethodGet, "/api/v1/runs/9b2f0f0e-8c1e-4a57-9d1e-3f5a8c2b7d10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = v.do(http.MethodGet, "/api/v1/runs/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(http.MethodDelete, "/api/v1/tabs/"+tab.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, v.tabs.List())
}

func TestTabRoutes_AuthRequired(t *testing.T) {
	v := newEnv(t, stubGen{result: models.AuthRequiredResult("Please log in to generate cover letters")}, nil)
	tab, err := v.tabs.Attach(dom.MustParseHTML(applyPage, applyURL), false)
	require.NoError(t, err)

	rec := v.do(http.MethodPost, "/api/v1/tabs/"+tab.ID+"/generate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_required")
}

func TestOpenTab_Validation(t *testing.T) {
	v := newEnv(t, stubGen{}, nil)

	rec := v.do(http.MethodPost, "/api/v1/tabs", `{"url":"ftp://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// no browser behind the registry
	rec = v.do(http.MethodPost, "/api/v1/tabs", `{"url":"`+applyURL+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFillRoute_ReassertsAfterRequestEnds(t *testing.T) {
	v := newEnv(t, stubGen{}, nil, func(cfg *config.Config) {
		cfg.Fill.ReassertAttempts = 2
		cfg.Fill.ReassertInitialDelay = 50 * time.Millisecond
		cfg.Fill.ReassertBackoff = 1
	})
	doc := dom.MustParseHTML(applyPage, applyURL)
	tab, err := v.tabs.Attach(doc, false)
	require.NoError(t, err)

	rec := v.do(http.MethodPost, "/api/v1/tabs/"+tab.ID+"/fill", `{"text":"My own words"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// the host page wipes the field after the request has completed
	field := dom.First(doc, "textarea")
	require.NoError(t, field.SetValue(""))

	assert.Eventually(t, func() bool {
		return field.Value() == "My own words"
	}, time.Second, 10*time.Millisecond)
}
