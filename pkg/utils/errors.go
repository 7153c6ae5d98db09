package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// AsCustomError unwraps err into a *CustomError if one is in the chain
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

func NewLLMError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadGateway,
		Message: "LLM processing failed",
		Detail:  detail,
	}
}

// NewAuthError is returned when the session is missing or can no longer be refreshed
func NewAuthError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnauthorized,
		Message: "Authentication failed. Please log in again.",
		Detail:  detail,
	}
}

func NewFieldNotFoundError(field string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: "Field not found",
		Detail:  field,
	}
}

func NewTabNotFoundError(tabID string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: "Tab not found",
		Detail:  tabID,
	}
}

func NewRunNotFoundError(runID string) *CustomError {
	return &CustomError{
		Code:    http.StatusNotFound,
		Message: "Run not found",
		Detail:  runID,
	}
}
