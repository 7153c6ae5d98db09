package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContainsAnyFold reports whether s contains any of the phrases, ignoring case
func ContainsAnyFold(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// TruncateRunes cuts s to at most max runes
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// MaskSecret keeps the first few characters of a secret for logging
func MaskSecret(secret string) string {
	if len(secret) <= 10 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:10] + "..."
}
