package fill

import (
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/questions"
)

var coverLetterSelectors = []string{
	`textarea[aria-labelledby="cover_letter_label"]`,
	`textarea.inner-textarea`,
	`textarea.air3-textarea`,
	`textarea[name="coverLetter"]`,
	`textarea[placeholder*="cover"]`,
	`textarea[placeholder*="letter"]`,
	`textarea[aria-label*="cover"]`,
	`textarea[aria-label*="letter"]`,
	`textarea[data-test="cover-letter"]`,
	`textarea[data-cy="cover-letter"]`,
}

// LocateCoverLetterField finds the proposal's cover-letter textarea, or nil.
// The fallback never picks a textarea inside the questions area.
func LocateCoverLetterField(doc dom.Document) dom.Node {
	if doc == nil {
		return nil
	}
	questions.MarkContainers(doc)

	for _, sel := range coverLetterSelectors {
		for _, el := range doc.Find(sel) {
			if questions.InContainer(el) == nil {
				return el
			}
		}
	}

	for _, el := range doc.Find("textarea") {
		if el.Visible() && !el.Disabled() && questions.InContainer(el) == nil {
			return el
		}
	}
	return nil
}
