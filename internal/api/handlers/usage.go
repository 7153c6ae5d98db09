package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"proposal-autofill/internal/prompts"
	"proposal-autofill/pkg/models"
)

// MetaPrompter resolves a template's effective meta prompt
type MetaPrompter interface {
	MetaPrompt(ctx context.Context, templateType string) (string, error)
}

// MetaPromptRequest overrides or, when empty, restores a meta prompt
type MetaPromptRequest struct {
	TemplateType string `param:"type" validate:"required,template_type"`
	MetaPrompt   string `json:"meta_prompt" validate:"max=4000"`
}

// UsageHandler reports the proposal quota
func UsageHandler(d Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "usage")
		resp := d.Handle(c.Request().Context(), models.MessageRequest{Action: models.ActionGetUsageInfo})
		if !resp.Success {
			return errorJSON(c, http.StatusInternalServerError, "usage_unavailable", resp.Error, requestID)
		}
		return c.JSON(http.StatusOK, resp.Data)
	}
}

// TemplatesHandler lists the prompt templates with their effective meta prompts
func TemplatesHandler(mp MetaPrompter) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, logger := requestLogger(c, "templates")

		all := prompts.All()
		for i := range all {
			meta, err := mp.MetaPrompt(c.Request().Context(), all[i].Type)
			if err != nil {
				logger.WithError(err).Warn("Failed to resolve meta prompt", map[string]interface{}{"template": all[i].Type})
				continue
			}
			all[i].MetaPrompt = meta
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"templates": all, "request_id": requestID})
	}
}

// MetaPromptHandler stores a meta prompt override through the message bus
func MetaPromptHandler(d Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "templates")

		var req MetaPromptRequest
		if ok, err := bind(c, &req, requestID); !ok {
			return err
		}

		resp := d.Handle(c.Request().Context(), models.MessageRequest{
			Action:       models.ActionSetMetaPromptOverride,
			TemplateType: req.TemplateType,
			MetaPrompt:   req.MetaPrompt,
		})
		if !resp.Success {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", resp.Error, requestID)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
