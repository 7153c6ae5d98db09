// Package fill writes generated text into form fields without letting a
// lower-priority result clobber a higher one.
package fill

import (
	"context"
	"fmt"

	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/utils"
)

// Controller fills the fields of one page
type Controller struct {
	doc       dom.Document
	ledger    *Ledger
	scheduler *Scheduler
	logger    logging.Logger
	lifetime  context.Context
}

// NewController creates a controller for doc that re-asserts writes under policy
func NewController(doc dom.Document, policy RetryPolicy) *Controller {
	ledger := NewLedger()
	return &Controller{
		doc:       doc,
		ledger:    ledger,
		scheduler: NewScheduler(ledger, policy),
		logger:    logging.GetGlobalLogger().WithField("component", "fill_controller"),
		lifetime:  context.Background(),
	}
}

// Bind ties background re-asserts to ctx, the lifetime of the page. Call
// it before the first Fill.
func (c *Controller) Bind(ctx context.Context) {
	c.lifetime = ctx
}

// Document returns the page this controller writes to
func (c *Controller) Document() dom.Document {
	return c.doc
}

// Ledger exposes the priority ledger
func (c *Controller) Ledger() *Ledger {
	return c.ledger
}

// Assert makes field hold text. It writes, and fires input and change
// events, only when the current value differs.
func (c *Controller) Assert(field dom.Node, text string) (bool, error) {
	if field == nil {
		return false, utils.NewFieldNotFoundError("field detached")
	}
	if field.Value() == text {
		return false, nil
	}
	if err := field.SetValue(text); err != nil {
		return false, fmt.Errorf("failed to set value: %w", err)
	}
	return true, nil
}

// Fill writes text to the field keyed fieldKey if priority p is not stale,
// then keeps re-asserting it in the background until the bound lifetime
// ends. ctx only scopes logging; a write that already won is never undone
// by the caller going away. It returns false when the page is closed, the
// field cannot be found or a higher priority already holds the slot.
func (c *Controller) Fill(ctx context.Context, role Role, fieldKey, text string, p Priority) bool {
	if c.lifetime.Err() != nil {
		return false
	}
	logger := c.logger.WithContext(ctx)
	field := dom.Lookup(c.doc, fieldKey)
	if field == nil {
		logger.Debug("Fill target not found", map[string]interface{}{"role": string(role)})
		return false
	}

	slot := SlotFor(role, fieldKey)
	claim, ok := c.ledger.CompareAndSet(slot, p)
	if !ok {
		cur, _ := c.ledger.Current(slot)
		logger.Debug("Rejected stale fill", map[string]interface{}{
			"role":     string(role),
			"priority": p.String(),
			"current":  cur.String(),
		})
		return false
	}

	changed, err := c.Assert(field, text)
	if err != nil {
		logger.Warn("Fill failed", map[string]interface{}{"role": string(role), "error": err.Error()})
		return false
	}

	logger.Debug("Filled field", map[string]interface{}{
		"role":     string(role),
		"priority": p.String(),
		"changed":  changed,
		"length":   len(text),
	})

	c.scheduler.Schedule(c.lifetime, claim, func(attempt int) bool {
		f := dom.Lookup(c.doc, fieldKey)
		if f == nil {
			return false
		}
		reasserted, err := c.Assert(f, text)
		if err != nil {
			return false
		}
		if reasserted {
			logger.Debug("Re-asserted overwritten field", map[string]interface{}{
				"role":    string(role),
				"attempt": attempt + 1,
			})
		}
		return true
	})
	return true
}

// CoverLetterKey locates the cover-letter field and returns its key
func (c *Controller) CoverLetterKey() (string, bool) {
	field := LocateCoverLetterField(c.doc)
	if field == nil {
		return "", false
	}
	key, err := dom.FieldKey(field)
	if err != nil {
		return "", false
	}
	return key, true
}

// FillCoverLetter locates the cover-letter field and fills it
func (c *Controller) FillCoverLetter(ctx context.Context, text string, p Priority) bool {
	key, ok := c.CoverLetterKey()
	if !ok {
		return false
	}
	return c.Fill(ctx, RoleCoverLetter, key, text, p)
}

// CoverLetterValue returns the cover-letter field's current value
func (c *Controller) CoverLetterValue() (string, bool) {
	field := LocateCoverLetterField(c.doc)
	if field == nil {
		return "", false
	}
	return field.Value(), true
}

// Wait blocks until pending re-asserts finish
func (c *Controller) Wait() {
	c.scheduler.Wait()
}
