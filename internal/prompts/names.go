package prompts

import (
	"regexp"
	"strings"
	"unicode"

	"proposal-autofill/internal/extractor"
	"proposal-autofill/pkg/models"
)

// ProperName formats "First L.", falling back to the first name alone and
// then to the placeholder name
func ProperName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" {
		return extractor.PlaceholderName
	}
	if last == "" {
		return first
	}
	initial := []rune(last)[0]
	return first + " " + string(unicode.ToUpper(initial)) + "."
}

// SignatureName picks the name to sign with
func SignatureName(settings models.Settings) string {
	name := ProperName(settings.FirstName, settings.LastName)
	if name == extractor.PlaceholderName {
		if yours := strings.TrimSpace(settings.YourName); yours != "" {
			return yours
		}
	}
	return name
}

// ApplySignature puts the name on its own line after "Thanks," or
// "Thank you," and fills any leftover name placeholder
func ApplySignature(text, name string) string {
	if name == "" {
		name = extractor.PlaceholderName
	}
	rx, err := regexp.Compile(`(?i)\b(Thanks|Thank you),\s*` + regexp.QuoteMeta(name))
	if err != nil {
		return text
	}
	out := rx.ReplaceAllStringFunc(text, func(m string) string {
		sub := rx.FindStringSubmatch(m)
		return sub[1] + ",\n" + name
	})
	return strings.ReplaceAll(out, NamePlaceholder, name)
}
