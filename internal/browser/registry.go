package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/history"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/orchestrator"
	"proposal-autofill/internal/service"
	"proposal-autofill/pkg/utils"
)

// PageOpener opens a navigated browser page
type PageOpener interface {
	OpenPage(ctx context.Context, url string) (*rod.Page, error)
}

// Registry tracks open tabs by ID. The most recently opened tab is the
// active one.
type Registry struct {
	cfg    *config.Config
	opener PageOpener
	gen    orchestrator.Generator
	runs   *history.Recorder
	logger logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	tabs  map[string]*Tab
	order []string
}

// NewRegistry creates an empty registry. opener may be nil when tabs are
// only attached from parsed documents.
func NewRegistry(cfg *config.Config, opener PageOpener, gen orchestrator.Generator) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		cfg:    cfg,
		opener: opener,
		gen:    gen,
		runs:   history.NewRecorder(history.NewInMemoryStore(cfg.Browser.RunHistoryPerTab)),
		logger: logging.GetGlobalLogger().WithField("component", "tabs"),
		ctx:    ctx,
		cancel: cancel,
		tabs:   make(map[string]*Tab),
	}
	go r.runs.RunCleanup(ctx, time.Hour, cfg.Browser.RunHistoryTTL)
	return r
}

// Runs is the run history of every tab
func (r *Registry) Runs() history.Store {
	return r.runs.Store()
}

// Open navigates a new browser page to url and attaches an orchestrator
func (r *Registry) Open(ctx context.Context, url string, watch bool) (*Tab, error) {
	if r.opener == nil {
		return nil, fmt.Errorf("no browser configured")
	}
	if err := r.checkCapacity(); err != nil {
		return nil, err
	}
	page, err := r.opener.OpenPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.add(NewDocument(page), page, watch)
}

// Attach registers an already loaded document as a tab
func (r *Registry) Attach(doc dom.Document, watch bool) (*Tab, error) {
	if err := r.checkCapacity(); err != nil {
		return nil, err
	}
	return r.add(doc, nil, watch)
}

func (r *Registry) checkCapacity() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if max := r.cfg.Browser.MaxTabs; max > 0 && len(r.tabs) >= max {
		return fmt.Errorf("tab limit reached: %d", max)
	}
	return nil
}

func (r *Registry) add(doc dom.Document, page *rod.Page, watch bool) (*Tab, error) {
	tab := newTab(r.ctx, uuid.NewString(), doc, page, r.gen, r.runs, r.cfg)

	r.mu.Lock()
	r.tabs[tab.ID] = tab
	r.order = append(r.order, tab.ID)
	r.mu.Unlock()

	if watch {
		tab.startWatch(r.cfg.Browser.WatchInterval)
	}
	r.logger.Info("Tab opened", map[string]interface{}{
		"tab_id": tab.ID,
		"url":    doc.URL(),
		"watch":  watch,
	})
	return tab, nil
}

// Get resolves a tab ID; an empty ID selects the active tab
func (r *Registry) Get(id string) (*Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == "" {
		if len(r.order) == 0 {
			return nil, utils.NewTabNotFoundError("no open tabs")
		}
		id = r.order[len(r.order)-1]
	}
	tab, ok := r.tabs[id]
	if !ok {
		return nil, utils.NewTabNotFoundError(id)
	}
	return tab, nil
}

// Page satisfies service.Pages
func (r *Registry) Page(id string) (service.Page, error) {
	tab, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return tab.Orchestrator(), nil
}

// LoggedIn satisfies service.Pages
func (r *Registry) LoggedIn() {
	for _, tab := range r.List() {
		tab.Orchestrator().Unblock()
	}
}

// List returns the open tabs, oldest first
func (r *Registry) List() []*Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tab, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tabs[id])
	}
	return out
}

// Close closes one tab
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	tab, ok := r.tabs[id]
	if ok {
		delete(r.tabs, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return utils.NewTabNotFoundError(id)
	}
	r.logger.Info("Tab closed", map[string]interface{}{"tab_id": id})
	err := tab.Close()
	r.runs.Forget(context.Background(), id)
	return err
}

// CloseAll stops every watcher and closes every tab
func (r *Registry) CloseAll() error {
	r.cancel()

	r.mu.Lock()
	tabs := make([]*Tab, 0, len(r.tabs))
	for _, t := range r.tabs {
		tabs = append(tabs, t)
	}
	r.tabs = make(map[string]*Tab)
	r.order = nil
	r.mu.Unlock()

	var firstErr error
	for _, t := range tabs {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
