package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"proposal-autofill/pkg/models"
)

// Dispatcher answers message bus requests
type Dispatcher interface {
	Handle(ctx context.Context, req models.MessageRequest) models.MessageResponse
}

// MessageHandler exposes the message bus over HTTP. Handler failures are
// reported in the body with status 200, like the in-browser bus.
func MessageHandler(d Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, logger := requestLogger(c, "messages")

		var req models.MessageRequest
		if err := c.Bind(&req); err != nil {
			logger.WithError(err).Warn("Failed to bind message")
			return c.JSON(http.StatusBadRequest, models.Fail("Invalid request"))
		}
		if req.Action == "" {
			return c.JSON(http.StatusBadRequest, models.Fail("Invalid request"))
		}

		resp := d.Handle(c.Request().Context(), req)
		logger.Info("Message handled", map[string]interface{}{
			"action":        req.Action,
			"success":       resp.Success,
			"limit_reached": resp.LimitReached,
		})
		return c.JSON(http.StatusOK, resp)
	}
}
