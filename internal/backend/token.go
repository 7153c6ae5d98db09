package backend

import (
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired decodes the exp claim without verifying the signature and
// reports whether it falls within skew of now. Tokens that cannot be decoded
// or carry no exp are treated as not expired; the server decides.
func TokenExpired(token string, skew time.Duration) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Add(skew).After(exp.Time)
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)
var nonPrintable = regexp.MustCompile(`[^\x20-\x7E]`)

// IsKeyEncrypted reports whether key looks like ciphertext rather than a
// plain provider key
func IsKeyEncrypted(key string) bool {
	if key == "" {
		return false
	}
	if strings.HasPrefix(key, "sk-") && len(key) > 20 {
		return false
	}
	if parts := strings.Split(key, ":"); len(parts) == 2 {
		if base64Pattern.MatchString(parts[0]) && base64Pattern.MatchString(parts[1]) {
			return true
		}
	}
	return nonPrintable.MatchString(key) || (base64Pattern.MatchString(key) && len(key) > 20)
}
