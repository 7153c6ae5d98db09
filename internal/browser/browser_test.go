package browser

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/orchestrator"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

const (
	applyURL  = "https://www.upwork.com/ab/proposals/job/~01/apply/"
	detailURL = "https://www.upwork.com/jobs/~01"
)

const page = `<html><body>
<h1 data-test="job-title">Shopify store migration</h1>
<div class="job-description">Move a 2,000 product catalog from WooCommerce to Shopify, keep SEO redirects, customer accounts and order history working after the switch.</div>
<button data-test="apply-button">Apply now</button>
<form>
  <label for="cl">Cover Letter</label>
  <textarea id="cl" name="coverLetter"></textarea>
</form>
</body></html>`

type stubGen struct {
	result models.GenerationResult
	calls  atomic.Int32
}

func (g *stubGen) Settings(context.Context) (models.Settings, error) {
	return models.Settings{AutoAnswerQuestions: models.Bool(false)}, nil
}

func (g *stubGen) GenerateCoverLetter(context.Context, models.JobPosting, models.Settings) models.GenerationResult {
	g.calls.Add(1)
	return g.result
}

func (g *stubGen) GenerateAnswers(context.Context, models.JobPosting, []models.ApplicationQuestion, models.Settings) models.GenerationResult {
	return models.AnswersResult(nil, nil)
}

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.Readiness.PollInterval = time.Millisecond
	cfg.Readiness.SettleDelay = 0
	cfg.Readiness.MaxPolls = 3
	cfg.Fill.ReassertAttempts = 0
	cfg.Orchestrator.ExtractionRetryDelay = time.Millisecond
	cfg.Orchestrator.QuestionRetryDelay = time.Millisecond
	cfg.Orchestrator.FieldRetryDelay = time.Millisecond
	cfg.Browser.WatchInterval = 5 * time.Millisecond
	cfg.Browser.MaxTabs = 2
	return cfg
}

func letterValue(t *testing.T, doc dom.Document) string {
	t.Helper()
	n := dom.First(doc, "#cl")
	require.NotNil(t, n)
	return n.Value()
}

func TestRegistry_ResolveAndClose(t *testing.T) {
	r := NewRegistry(fastConfig(), nil, &stubGen{})
	defer r.CloseAll()

	_, err := r.Get("")
	ce, ok := utils.AsCustomError(err)
	require.True(t, ok)
	assert.Equal(t, 404, ce.Code)

	first, err := r.Attach(dom.MustParseHTML(page, detailURL), false)
	require.NoError(t, err)
	second, err := r.Attach(dom.MustParseHTML(page, detailURL), false)
	require.NoError(t, err)

	_, err = r.Attach(dom.MustParseHTML(page, detailURL), false)
	assert.ErrorContains(t, err, "tab limit reached")

	active, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	p, err := r.Page(first.ID)
	require.NoError(t, err)
	job, err := p.ExtractJob()
	require.NoError(t, err)
	assert.Equal(t, "Shopify store migration", job.Title)

	require.NoError(t, r.Close(second.ID))
	active, err = r.Get("")
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	assert.Error(t, r.Close(second.ID))
	assert.Len(t, r.List(), 1)
}

func TestTab_ClickApplyGenerates(t *testing.T) {
	gen := &stubGen{result: models.CoverLetterResult("Hello, I migrate stores.", nil)}
	r := NewRegistry(fastConfig(), nil, gen)
	defer r.CloseAll()

	doc := dom.MustParseHTML(page, detailURL)
	tab, err := r.Attach(doc, false)
	require.NoError(t, err)

	report, err := tab.ClickApply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.OutcomeGenerated, report.Outcome)
	assert.Equal(t, orchestrator.TriggerApplyClick, report.Trigger)
	assert.Equal(t, "Hello, I migrate stores.", letterValue(t, doc))

	var clicked bool
	for _, e := range doc.Events() {
		if e.Type == "click" {
			clicked = true
		}
	}
	assert.True(t, clicked)
}

func TestTab_ClickApplyWithoutButton(t *testing.T) {
	r := NewRegistry(fastConfig(), nil, &stubGen{})
	defer r.CloseAll()

	tab, err := r.Attach(dom.MustParseHTML(`<html><body><button disabled class="apply-button">Apply</button></body></html>`, detailURL), false)
	require.NoError(t, err)

	_, err = tab.ClickApply(context.Background())
	assert.ErrorContains(t, err, "apply button not found")
}

func TestTab_PollRefillsAndResetsOnNavigation(t *testing.T) {
	gen := &stubGen{result: models.CoverLetterResult("Generated letter", nil)}
	r := NewRegistry(fastConfig(), nil, gen)
	defer r.CloseAll()

	doc := dom.MustParseHTML(page, applyURL)
	tab, err := r.Attach(doc, false)
	require.NoError(t, err)
	ctx := context.Background()

	report := tab.Poll(ctx)
	assert.Equal(t, orchestrator.OutcomeGenerated, report.Outcome)
	assert.Equal(t, orchestrator.TriggerURLMatch, report.Trigger)

	require.NoError(t, dom.First(doc, "#cl").SetValue(""))
	report = tab.Poll(ctx)
	assert.Equal(t, orchestrator.OutcomeRefilled, report.Outcome)
	assert.Equal(t, "Generated letter", letterValue(t, doc))
	assert.EqualValues(t, 1, gen.calls.Load())

	doc.SetURL(detailURL)
	report = tab.Poll(ctx)
	assert.Equal(t, orchestrator.OutcomeSkipped, report.Outcome)
	assert.False(t, tab.Orchestrator().Snapshot().Generated)

	// skipped polls are not recorded
	runs, err := r.Runs().ListByTab(ctx, tab.ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, orchestrator.OutcomeRefilled, runs[0].Report.Outcome)
	assert.Equal(t, orchestrator.OutcomeGenerated, runs[1].Report.Outcome)

	require.NoError(t, r.Close(tab.ID))
	runs, err = r.Runs().ListByTab(ctx, tab.ID)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTab_LimitNoticeRecorded(t *testing.T) {
	snap := models.NewUsageSnapshot(50)
	snap.Used = 50
	gen := &stubGen{result: models.LimitReachedResult(snap)}
	r := NewRegistry(fastConfig(), nil, gen)
	defer r.CloseAll()

	tab, err := r.Attach(dom.MustParseHTML(page, applyURL), false)
	require.NoError(t, err)

	report := tab.Poll(context.Background())
	assert.Equal(t, orchestrator.OutcomeLimitReached, report.Outcome)

	notices := tab.Notices()
	require.NotEmpty(t, notices)
	assert.Equal(t, orchestrator.LevelWarning, notices[0].Level)
}

func TestTab_WatchStopsOnClose(t *testing.T) {
	gen := &stubGen{result: models.CoverLetterResult("Watched letter", nil)}
	r := NewRegistry(fastConfig(), nil, gen)

	doc := dom.MustParseHTML(page, applyURL)
	tab, err := r.Attach(doc, true)
	require.NoError(t, err)
	assert.True(t, tab.Watching())

	assert.Eventually(t, func() bool {
		return tab.Orchestrator().Snapshot().Generated
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, r.CloseAll())
	assert.False(t, tab.Watching())
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestTab_WatchHoldsAfterAuthRequired(t *testing.T) {
	gen := &stubGen{result: models.AuthRequiredResult("Please log in to generate cover letters")}
	r := NewRegistry(fastConfig(), nil, gen)
	defer r.CloseAll()

	tab, err := r.Attach(dom.MustParseHTML(page, applyURL), true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return gen.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Len(t, tab.Notices(), 1)
	assert.True(t, tab.Orchestrator().Snapshot().AuthBlocked)

	report := tab.Run(context.Background(), orchestrator.TriggerManual)
	assert.Equal(t, orchestrator.OutcomeAuthRequired, report.Outcome)
	assert.EqualValues(t, 2, gen.calls.Load())

	r.LoggedIn()
	assert.Eventually(t, func() bool { return gen.calls.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRegistry_OpenWithoutBrowser(t *testing.T) {
	r := NewRegistry(fastConfig(), nil, &stubGen{})
	_, err := r.Open(context.Background(), applyURL, false)
	assert.Error(t, err)
}

func TestSystemChromePath_Env(t *testing.T) {
	bin := t.TempDir() + "/chrome"
	require.NoError(t, writeExecutable(bin))
	t.Setenv("CHROME_BIN", bin)
	assert.Equal(t, bin, systemChromePath())
}

func writeExecutable(path string) error {
	return os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755)
}
