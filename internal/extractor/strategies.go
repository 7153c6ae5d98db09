package extractor

import (
	"strings"
	"unicode/utf8"

	"proposal-autofill/internal/dom"
)

// Strategy is one ranked way of pulling a piece of text out of a page.
// Run returns "" when the strategy has nothing to offer.
type Strategy struct {
	Name string
	Run  func(doc dom.Document) string
}

var descriptionSelectors = []string{
	`[data-test="job-description"]`,
	`[data-cy="job-description"]`,
	`.job-description`,
	`.job-description-text`,
	`[data-test="job-details"] .up-card-section`,
	`.up-card-section[data-test="job-details"]`,
	`.job-details .up-card-section`,
	`.job-details .description`,
	`.job-content .description`,
	`.job-post-content`,
	`.job-description-content`,
	`[class*="job-description"]`,
	`[class*="job-details"]`,
	`[class*="job-content"]`,
}

var titleSelectors = []string{
	`h1[data-test="job-title"]`,
	`[data-cy="job-title"]`,
	`[data-test="job-details"] h1`,
	`.up-card-section h1`,
	`h1:not([class*="button"]):not([class*="btn"])`,
	`h2:not([class*="button"]):not([class*="btn"])`,
	`.job-details h1`,
	`.job-details h2`,
	`.job-content h1`,
	`.job-content h2`,
}

var nameSelectors = []string{
	`.nav-user-label`,
	`.nav-user-info .nav-user-label`,
	`.nav-user-info-wrapper .nav-user-label`,
	`.nav-organization-dropdown .flex-1 div:first-child`,
	`.nav-dropdown-list .flex-1 div:first-child`,
	`[data-test="user-menu"] [data-test="user-name"]`,
	`[data-test="user-menu"] .user-name`,
	`.user-menu .user-name`,
	`.up-menu .user-name`,
	`[data-test="freelancer-name"]`,
	`.freelancer-name`,
	`.user-info .name`,
	`.profile .name`,
	`.profile-section .name`,
	`.user-profile .name`,
	`.freelancer-profile .name`,
	`[class*="freelancer-name"]`,
	`[class*="user-name"]`,
	`[class*="profile-name"]`,
	`[aria-label*="profile"] [class*="name"]`,
	`[aria-label*="user"] [class*="name"]`,
}

const profileContainers = `[class*="profile"], [class*="user"], [class*="account"], [class*="menu"]`

// DescriptionStrategies in rank order
var DescriptionStrategies = []Strategy{
	{Name: "selectors", Run: firstAccepted(descriptionSelectors, AcceptDescription)},
	{Name: "longest_block", Run: longestAccepted("div, section, article, p", acceptBlock)},
}

// TitleStrategies in rank order
var TitleStrategies = []Strategy{
	{Name: "selectors", Run: firstAccepted(titleSelectors, AcceptTitle)},
	{Name: "longest_heading", Run: longestAccepted("h1, h2", AcceptTitle)},
}

// NameStrategies in rank order, run after the saved settings value
var NameStrategies = []Strategy{
	{Name: "account_menu", Run: firstAccepted(nameSelectors, func(s string) bool {
		return s != "" && utf8.RuneCountInString(s) < maxNameLength
	}, dom.CleanText)},
	{Name: "name_pattern", Run: anyAccepted(profileContainers, LooksLikeName)},
}

// firstAccepted walks selectors in order and returns the first match whose
// text passes accept; only the first element per selector is considered
func firstAccepted(selectors []string, accept func(string) bool, clean ...func(string) string) func(dom.Document) string {
	return func(doc dom.Document) string {
		for _, sel := range selectors {
			el := dom.First(doc, sel)
			if el == nil {
				continue
			}
			text := strings.TrimSpace(el.Text())
			for _, c := range clean {
				text = c(text)
			}
			if text != "" && accept(text) {
				return text
			}
		}
		return ""
	}
}

// longestAccepted returns the longest accepted text among all matches
func longestAccepted(selector string, accept func(string) bool) func(dom.Document) string {
	return func(doc dom.Document) string {
		best := ""
		for _, el := range doc.Find(selector) {
			text := strings.TrimSpace(el.Text())
			if len(text) > len(best) && accept(text) {
				best = text
			}
		}
		return best
	}
}

// anyAccepted returns the first match in document order that passes accept
func anyAccepted(selector string, accept func(string) bool) func(dom.Document) string {
	return func(doc dom.Document) string {
		for _, el := range doc.Find(selector) {
			if text := strings.TrimSpace(el.Text()); accept(text) {
				return text
			}
		}
		return ""
	}
}

// Run returns the first non-empty result among strategies and its name
func Run(doc dom.Document, strategies []Strategy) (string, string) {
	for _, s := range strategies {
		if text := s.Run(doc); text != "" {
			return text, s.Name
		}
	}
	return "", ""
}
