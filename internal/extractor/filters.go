package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minDescriptionLength = 100
	maxDescriptionLength = 5000
	minTitleLength       = 10
	maxNameLength        = 50

	// DefaultTitle is used when no heading qualifies
	DefaultTitle = "Job Application"
	// PlaceholderName is used when no display name can be resolved
	PlaceholderName = "Your Name"
)

// page chrome that disqualifies a description candidate
var descriptionDenyList = []string{
	"Apply Now",
	"Submit Proposal",
	"Posted",
	"Hourly range",
	"Skills and expertise",
	"View job posting",
	"Sign In",
}

// extra chrome checked when scanning arbitrary blocks
var blockDenyList = append(append([]string{}, descriptionDenyList...),
	"Navigation",
	"Menu",
	"Sign Up",
	"Profile",
	"Messages",
	"Notifications",
	"Featured Job",
	"Close the tooltip",
	"Less than",
	"Project length",
	"Duration",
)

var titleDenyList = []string{"Submit", "Apply", "Proposal", "Button"}

var nameDenyList = []string{
	"Apply", "Job", "Proposal", "Upwork", "Client", "Freelancer", "Profile", "Account",
}

var namePattern = regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-z]+){1,2}$`)

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func plausibleLength(text string) bool {
	n := utf8.RuneCountInString(text)
	return n > minDescriptionLength && n < maxDescriptionLength
}

// AcceptDescription is the length and deny-list check for a description
func AcceptDescription(text string) bool {
	return plausibleLength(text) && !containsAny(text, descriptionDenyList)
}

func acceptBlock(text string) bool {
	return plausibleLength(text) && !containsAny(text, blockDenyList)
}

// AcceptTitle rejects button labels and fragments
func AcceptTitle(text string) bool {
	return utf8.RuneCountInString(text) >= minTitleLength && !containsAny(text, titleDenyList)
}

// LooksLikeName matches two or three capitalized words outside site chrome
func LooksLikeName(text string) bool {
	n := utf8.RuneCountInString(text)
	if n <= 2 || n >= maxNameLength {
		return false
	}
	return namePattern.MatchString(text) && !containsAny(text, nameDenyList)
}
