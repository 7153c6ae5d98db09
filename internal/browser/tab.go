package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/history"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/orchestrator"
)

// ApplySelectors locate the "Apply now" button, most specific first
var ApplySelectors = []string{
	`[data-test="apply-button"]`,
	`.apply-button`,
	`button[type="submit"]`,
	`a[href*="apply"]`,
}

var toastColors = map[orchestrator.Level]string{
	orchestrator.LevelInfo:    "#2196f3",
	orchestrator.LevelSuccess: "#14a800",
	orchestrator.LevelWarning: "#ff9800",
	orchestrator.LevelError:   "#f44336",
}

const toastJS = `(message, color) => {
	const el = document.createElement('div');
	el.setAttribute('data-pp-toast', '1');
	el.textContent = message;
	el.style.cssText = 'position:fixed;top:20px;right:20px;z-index:2147483647;padding:12px 18px;' +
		'border-radius:6px;color:#fff;font:14px sans-serif;box-shadow:0 2px 8px rgba(0,0,0,.3);background:' + color;
	document.body.appendChild(el);
	setTimeout(() => el.remove(), 4000);
}`

// Tab is one proposal page and the orchestrator attached to it
type Tab struct {
	ID        string
	CreatedAt time.Time

	page     *rod.Page
	doc      dom.Document
	orch     *orchestrator.Orchestrator
	recorder *orchestrator.Recorder
	runs     *history.Recorder
	logger   logging.Logger

	life context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastURL string
}

func newTab(parent context.Context, id string, doc dom.Document, page *rod.Page, gen orchestrator.Generator, runs *history.Recorder, cfg *config.Config) *Tab {
	life, stop := context.WithCancel(parent)
	t := &Tab{
		life:      life,
		stop:      stop,
		ID:        id,
		CreatedAt: time.Now(),
		page:      page,
		doc:       doc,
		recorder:  orchestrator.NewRecorder(),
		runs:      runs,
		logger:    logging.GetGlobalLogger().WithFields(map[string]interface{}{"component": "tab", "tab_id": id}),
	}
	t.orch = orchestrator.New(doc, gen, t, cfg)
	t.orch.Fill().Bind(life)
	return t
}

// Orchestrator returns the tab's orchestrator
func (t *Tab) Orchestrator() *orchestrator.Orchestrator {
	return t.orch
}

// URL is the page's current address
func (t *Tab) URL() string {
	return t.doc.URL()
}

// Notices lists everything shown to the user on this tab
func (t *Tab) Notices() []orchestrator.Notice {
	return t.recorder.Notices()
}

// Notify records the notice and shows it as a toast on the live page
func (t *Tab) Notify(ctx context.Context, n orchestrator.Notice) {
	t.recorder.Notify(ctx, n)
	if t.page == nil {
		return
	}
	color, ok := toastColors[n.Level]
	if !ok {
		color = toastColors[orchestrator.LevelInfo]
	}
	if _, err := t.page.Context(ctx).Timeout(queryTimeout).Eval(toastJS, n.Message, color); err != nil {
		t.logger.WithError(err).Debug("Failed to show toast")
	}
}

// ClickApply presses the apply button, then starts a run for the form it opens
func (t *Tab) ClickApply(ctx context.Context) (orchestrator.Report, error) {
	btn := findApplyButton(t.doc)
	if btn == nil {
		return orchestrator.Report{}, fmt.Errorf("apply button not found")
	}
	if err := btn.Click(); err != nil {
		return orchestrator.Report{}, fmt.Errorf("failed to click apply: %w", err)
	}
	t.logger.Info("Apply button clicked")
	return t.Run(ctx, orchestrator.TriggerApplyClick), nil
}

// Run triggers the orchestrator and records the result
func (t *Tab) Run(ctx context.Context, reason orchestrator.TriggerReason) orchestrator.Report {
	report := t.orch.Trigger(ctx, reason)
	t.record(ctx, report)
	return report
}

func (t *Tab) record(ctx context.Context, report orchestrator.Report) {
	if t.runs != nil {
		t.runs.Record(ctx, t.ID, report)
	}
}

func findApplyButton(doc dom.Document) dom.Node {
	for _, sel := range ApplySelectors {
		for _, n := range doc.Find(sel) {
			if n.Visible() && !n.Disabled() {
				return n
			}
		}
	}
	return nil
}

// Poll checks the page once: a changed URL resets the orchestrator, then
// the orchestrator sees the change as a mutation
func (t *Tab) Poll(ctx context.Context) orchestrator.Report {
	url := t.doc.URL()
	t.mu.Lock()
	changed := t.lastURL != "" && url != t.lastURL
	t.lastURL = url
	t.mu.Unlock()

	if changed {
		t.logger.Info("Navigation detected, resetting", map[string]interface{}{"url": url})
		t.orch.Reset()
	}

	report := t.orch.OnMutation(ctx)
	if report.Outcome != orchestrator.OutcomeSkipped {
		t.logger.Info("Page change handled", reportFields(report))
		t.record(ctx, report)
	}
	return report
}

// Watch polls the page until ctx is cancelled
func (t *Tab) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Poll(ctx)
		}
	}
}

func (t *Tab) startWatch(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(t.life)
	t.cancel = cancel
	t.done = make(chan struct{})
	go func() {
		defer close(t.done)
		t.Watch(ctx, interval)
	}()
}

// Watching reports whether the page is being watched
func (t *Tab) Watching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Close stops watching and closes the page
func (t *Tab) Close() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.stop()
	t.orch.Fill().Wait()
	if t.page != nil {
		return t.page.Close()
	}
	return nil
}

func reportFields(r orchestrator.Report) map[string]interface{} {
	return map[string]interface{}{
		"trigger":   string(r.Trigger),
		"outcome":   string(r.Outcome),
		"filled":    r.Filled,
		"questions": string(r.Questions),
		"answered":  r.Answered,
		"duration":  r.Duration.String(),
	}
}
