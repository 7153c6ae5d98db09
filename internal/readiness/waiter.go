// Package readiness waits for a proposal page to finish rendering its form.
package readiness

import (
	"context"
	"errors"
	"time"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/logging"
)

// ErrPageNotReady is returned once the poll budget is spent
var ErrPageNotReady = errors.New("page not ready: no form elements after polling")

const formElementSelector = "input, select, button, textarea"

// Waiter polls a page until its form elements exist
type Waiter struct {
	MinFormElements int
	PollInterval    time.Duration
	SettleDelay     time.Duration
	MaxPolls        int

	logger logging.Logger
}

// NewWaiter builds a waiter from the readiness config section
func NewWaiter(cfg *config.Config) *Waiter {
	return &Waiter{
		MinFormElements: cfg.Readiness.MinFormElements,
		PollInterval:    cfg.Readiness.PollInterval,
		SettleDelay:     cfg.Readiness.SettleDelay,
		MaxPolls:        cfg.Readiness.MaxPolls,
		logger:          logging.GetGlobalLogger().WithField("component", "readiness"),
	}
}

// Ready reports whether doc has loaded and shows enough form elements
func (w *Waiter) Ready(doc dom.Document) bool {
	if doc.ReadyState() != dom.ReadyStateComplete {
		return false
	}
	min := w.MinFormElements
	if min < 1 {
		min = 1
	}
	return len(doc.Find(formElementSelector)) >= min
}

// AwaitPageReady blocks until doc is ready and then for SettleDelay more.
// It gives up with ErrPageNotReady after MaxPolls polls.
func (w *Waiter) AwaitPageReady(ctx context.Context, doc dom.Document) error {
	logger := w.logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	for poll := 0; ; poll++ {
		if w.Ready(doc) {
			logger.Debug("Page ready", map[string]interface{}{"polls": poll})
			return sleep(ctx, w.SettleDelay)
		}

		if poll >= w.MaxPolls {
			logger.Warn("Gave up waiting for form elements", map[string]interface{}{
				"polls": poll,
				"url":   doc.URL(),
			})
			return ErrPageNotReady
		}

		if err := sleep(ctx, w.PollInterval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
