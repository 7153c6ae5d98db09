package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"proposal-autofill/internal/api/middleware"
	"proposal-autofill/internal/api/validation"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

var validate = validation.New()

func requestLogger(c echo.Context, component string) (string, logging.Logger) {
	requestID := middleware.RequestID(c)
	return requestID, logging.GetGlobalLogger().WithFields(map[string]interface{}{
		"component":  component,
		"request_id": requestID,
	})
}

func errorJSON(c echo.Context, status int, code, message, requestID string) error {
	return c.JSON(status, models.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// bind decodes and validates the request body. When ok is false the error
// response has already been written and err is the write result.
func bind(c echo.Context, req interface{}, requestID string) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, fromError(c, utils.NewBadRequestError("Invalid request format"), requestID)
	}
	if err := validate.Struct(req); err != nil {
		return false, fromError(c, utils.NewValidationError(err.Error()), requestID)
	}
	return true, nil
}

// fromError maps application errors to their HTTP status
func fromError(c echo.Context, err error, requestID string) error {
	if ce, ok := utils.AsCustomError(err); ok {
		return errorJSON(c, ce.Code, errorCode(ce.Code), ce.Error(), requestID)
	}
	return errorJSON(c, http.StatusInternalServerError, "internal_error", err.Error(), requestID)
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "auth_required"
	case http.StatusPaymentRequired:
		return "limit_reached"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestTimeout:
		return "timeout"
	case http.StatusBadGateway:
		return "llm_failed"
	default:
		return "internal_error"
	}
}
