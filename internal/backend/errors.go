package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEncryptedKey is returned when the server hands out an API key that is
// still encrypted
var ErrEncryptedKey = errors.New("backend: api key is encrypted")

// ErrNoActiveKey is returned when no active OPENAI key is configured
var ErrNoActiveKey = errors.New("backend: no active OpenAI API key found")

// Error is a failed backend call
type Error struct {
	Path    string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUnauthorized reports a 401 from the backend
func IsUnauthorized(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusUnauthorized
}

// Message returns the user-facing message carried by err, or def
func Message(err error, def string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" && be.Cause == nil {
		return be.Message
	}
	return def
}
