package questions

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CoverLetterTokens mark an attribute as belonging to the cover-letter field
var CoverLetterTokens = []string{"cover", "letter", "proposal"}

// phrases that mark surrounding text as the cover-letter area
var coverLetterPhrases = []string{"cover letter", "proposal"}

var questionWords = regexp.MustCompile(`(?i)\b(what|how|why|when|where|which|who|describe|explain|tell us|share|approach|experience|do you|have you|are you|can you|would you|will you|please provide|list|include)\b`)

const minLabelLength = 10

// LooksLikeQuestion reports a "?" or a question keyword
func LooksLikeQuestion(text string) bool {
	return strings.Contains(text, "?") || questionWords.MatchString(text)
}

// MentionsCoverLetter reports text about the cover letter itself
func MentionsCoverLetter(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range coverLetterPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func hasCoverToken(value string) bool {
	lower := strings.ToLower(value)
	for _, t := range CoverLetterTokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func keepLabel(label string) bool {
	return utf8.RuneCountInString(label) > minLabelLength &&
		LooksLikeQuestion(label) &&
		!MentionsCoverLetter(label)
}
