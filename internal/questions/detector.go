// Package questions finds the screening questions of a proposal form.
package questions

import (
	"fmt"
	"strings"

	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

const (
	containerMarkAttr = "data-pp-questions"
	fieldSelector     = `textarea, input[type="text"], input:not([type])`
	headingSelector   = `h2, h3, h4, h5, legend`

	maxSiblingHops  = 3
	maxAncestorHops = 3
	maxLabelRunes   = 500
)

var containerSelectors = []string{
	`[data-test="additional-questions"]`,
	`[data-test="questions-area"]`,
	`[data-cy="additional-questions"]`,
	`.fe-proposal-additional-questions`,
	`[class*="additional-questions"]`,
	`[class*="questions-area"]`,
	`[` + containerMarkAttr + `]`,
}

// ContainerSelector matches any additional-questions container, including
// ones found by heading and marked by MarkContainers
var ContainerSelector = strings.Join(containerSelectors, ", ")

// attributes checked for cover-letter tokens
var exclusionAttrs = []string{"name", "id", "placeholder", "aria-label", "aria-labelledby", "class"}

// Detector classifies the extra fields of an application form
type Detector struct {
	logger logging.Logger
}

// NewDetector creates a question detector
func NewDetector() *Detector {
	return &Detector{
		logger: logging.GetGlobalLogger().WithField("component", "question_detector"),
	}
}

// MarkContainers stamps the parent of every "additional questions" heading
// so ContainerSelector matches it. It returns the number of new marks.
func MarkContainers(doc dom.Document) int {
	marked := 0
	for _, h := range doc.Find(headingSelector) {
		if !strings.Contains(strings.ToLower(h.Text()), "additional question") {
			continue
		}
		p := h.Parent()
		if p == nil {
			continue
		}
		if _, ok := p.Attr(containerMarkAttr); ok {
			continue
		}
		if err := p.SetAttr(containerMarkAttr, "true"); err == nil {
			marked++
		}
	}
	return marked
}

// InContainer returns the additional-questions container holding n, or nil
func InContainer(n dom.Node) dom.Node {
	for _, p := range dom.Ancestors(n, 0) {
		if p.Matches(ContainerSelector) {
			return p
		}
	}
	return nil
}

// Detect returns the screening questions in document order. Fields outside
// an additional-questions container are never considered.
func (d *Detector) Detect(doc dom.Document) []models.ApplicationQuestion {
	if doc == nil {
		return nil
	}
	MarkContainers(doc)

	var out []models.ApplicationQuestion
	candidates := 0

	for _, field := range doc.Find(fieldSelector) {
		if InContainer(field) == nil {
			continue
		}
		candidates++

		if reason := excluded(field); reason != "" {
			d.logger.Debug("Skipping field", map[string]interface{}{"reason": reason})
			continue
		}

		label := resolveLabel(doc, field, candidates)
		if !keepLabel(label) {
			continue
		}

		key, err := dom.FieldKey(field)
		if err != nil {
			d.logger.Warn("Failed to key question field", map[string]interface{}{"error": err.Error()})
			continue
		}

		kind := models.InputShort
		if field.Tag() == "textarea" {
			kind = models.InputLong
		}

		out = append(out, models.ApplicationQuestion{
			FieldKey:  key,
			Label:     label,
			InputKind: kind,
			Required:  isRequired(field),
		})
	}

	d.logger.Debug("Detected questions", map[string]interface{}{
		"candidates": candidates,
		"questions":  len(out),
	})
	return out
}

// excluded returns why a field is not a question, or ""
func excluded(field dom.Node) string {
	for _, attr := range exclusionAttrs {
		if v, ok := field.Attr(attr); ok && hasCoverToken(v) {
			return "cover_letter_attr:" + attr
		}
	}

	for p := field.Parent(); p != nil; p = p.Parent() {
		if p.Matches(ContainerSelector) {
			break
		}
		if MentionsCoverLetter(p.Text()) {
			return "cover_letter_container"
		}
	}

	if !field.Visible() {
		return "hidden"
	}
	if field.Disabled() {
		return "disabled"
	}
	return ""
}

func resolveLabel(doc dom.Document, field dom.Node, ordinal int) string {
	if label := boundLabel(doc, field); label != "" {
		return label
	}

	sib := field.PrevSibling()
	for i := 0; sib != nil && i < maxSiblingHops; i++ {
		if text := dom.CleanText(sib.Text()); text != "" && LooksLikeQuestion(text) {
			return text
		}
		sib = sib.PrevSibling()
	}

	value := strings.TrimSpace(field.Value())
	for _, anc := range dom.Ancestors(field, maxAncestorHops) {
		if anc.Matches(ContainerSelector) {
			break
		}
		text := anc.Text()
		if value != "" {
			text = strings.Replace(text, value, "", 1)
		}
		text = dom.CleanText(text)
		if text != "" && len([]rune(text)) <= maxLabelRunes && LooksLikeQuestion(text) {
			return text
		}
	}

	if ph := strings.TrimSpace(dom.AttrOr(field, "placeholder")); ph != "" {
		return ph
	}
	return fmt.Sprintf("Question %d", ordinal)
}

func boundLabel(doc dom.Document, field dom.Node) string {
	if id := dom.AttrOr(field, "id"); id != "" {
		if l := dom.First(doc, fmt.Sprintf(`label[for="%s"]`, id)); l != nil {
			if text := dom.CleanText(l.Text()); text != "" {
				return text
			}
		}
	}

	var parts []string
	for _, id := range strings.Fields(dom.AttrOr(field, "aria-labelledby")) {
		if l := dom.First(doc, fmt.Sprintf(`[id="%s"]`, id)); l != nil {
			if text := dom.CleanText(l.Text()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

func isRequired(field dom.Node) bool {
	if _, ok := field.Attr("required"); ok {
		return true
	}
	return dom.AttrOr(field, "aria-required") == "true"
}
