// Package extractor pulls the job posting and the freelancer's display name
// out of a proposal page using ranked selector strategies.
package extractor

import (
	"strings"

	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

const expanderSelector = `[aria-expanded="false"]`

// Extractor reads job data from a page. It never mutates the page except to
// expand collapsed description toggles.
type Extractor struct {
	logger logging.Logger
}

// New creates an extractor
func New() *Extractor {
	return &Extractor{
		logger: logging.GetGlobalLogger().WithField("component", "extractor"),
	}
}

// ExtractJobPosting returns nil when no description qualifies; callers treat
// that as "not ready yet". A collapsed description may still come back
// truncated on the first call.
func (e *Extractor) ExtractJobPosting(doc dom.Document) *models.JobPosting {
	if doc == nil {
		return nil
	}

	if n := e.ExpandCollapsed(doc); n > 0 {
		e.logger.Debug("Expanded collapsed sections", map[string]interface{}{"count": n})
	}

	description, strategy := Run(doc, DescriptionStrategies)
	if description == "" {
		e.logger.Debug("No job description found", map[string]interface{}{"url": doc.URL()})
		return nil
	}

	job := &models.JobPosting{
		Title:       e.ExtractTitle(doc),
		Description: description,
		SourceURL:   doc.URL(),
	}

	e.logger.Debug("Extracted job posting", map[string]interface{}{
		"strategy":           strategy,
		"title":              job.Title,
		"description_length": len(job.Description),
	})
	return job
}

// ExtractTitle falls back to DefaultTitle
func (e *Extractor) ExtractTitle(doc dom.Document) string {
	if title, _ := Run(doc, TitleStrategies); title != "" {
		return title
	}
	return DefaultTitle
}

// ResolveDisplayName prefers the saved value, then the account menu, then
// a name-shaped string in profile containers
func (e *Extractor) ResolveDisplayName(doc dom.Document, saved string) string {
	if s := strings.TrimSpace(saved); s != "" && s != PlaceholderName {
		return s
	}
	if doc == nil {
		return PlaceholderName
	}

	if name, strategy := Run(doc, NameStrategies); name != "" {
		e.logger.Debug("Resolved display name", map[string]interface{}{"strategy": strategy})
		return name
	}
	return PlaceholderName
}

// ExpandCollapsed clicks "more" toggles marked aria-expanded=false and
// reports how many were clicked
func (e *Extractor) ExpandCollapsed(doc dom.Document) int {
	clicked := 0
	for _, el := range doc.Find(expanderSelector) {
		label := strings.ToLower(dom.TrimmedText(el) + " " + dom.AttrOr(el, "aria-label"))
		if !strings.Contains(label, "more") {
			continue
		}
		if err := el.Click(); err != nil {
			e.logger.Debug("Failed to expand section", map[string]interface{}{"error": err.Error()})
			continue
		}
		clicked++
	}
	return clicked
}

// Validate applies the same length and deny-list check as extraction
func (e *Extractor) Validate(job *models.JobPosting) bool {
	return job != nil && AcceptDescription(strings.TrimSpace(job.Description))
}

// IsApplicationURL reports whether url is a proposal form
func IsApplicationURL(url string) bool {
	return strings.Contains(url, "/apply/") || strings.Contains(url, "/proposals/")
}
