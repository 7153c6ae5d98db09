package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"proposal-autofill/internal/browser"
	"proposal-autofill/internal/history"
	"proposal-autofill/internal/orchestrator"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

// TabStatus is the detailed view of one tab
type TabStatus struct {
	models.TabResponse
	Snapshot orchestrator.Snapshot `json:"snapshot"`
	Notices  []orchestrator.Notice `json:"notices"`
	Watching bool                  `json:"watching"`
}

// RunResponse reports one orchestrator run on a tab
type RunResponse struct {
	TabID     string              `json:"tab_id"`
	Report    orchestrator.Report `json:"report"`
	RequestID string              `json:"request_id"`
}

func tabResponse(t *browser.Tab, requestID string) models.TabResponse {
	snap := t.Orchestrator().Snapshot()
	return models.TabResponse{
		TabID:     t.ID,
		URL:       t.URL(),
		State:     snap.State,
		Generated: snap.Generated,
		Job:       snap.Job,
		RequestID: requestID,
	}
}

// lookupTab resolves the :id param. On failure the error response has
// already been written and the returned error is the write result.
func lookupTab(c echo.Context, reg *browser.Registry, requestID string) (*browser.Tab, error) {
	id := c.Param("id")
	if err := validate.Var(id, "required,tab_id"); err != nil {
		return nil, errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid tab id", requestID)
	}
	tab, err := reg.Get(id)
	if err != nil {
		return nil, fromError(c, err, requestID)
	}
	return tab, nil
}

// OpenTabHandler opens a proposal page in the managed browser
func OpenTabHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, logger := requestLogger(c, "tabs")

		var req models.OpenTabRequest
		if ok, err := bind(c, &req, requestID); !ok {
			return err
		}

		tab, err := reg.Open(c.Request().Context(), req.URL, req.Watch)
		if err != nil {
			logger.WithError(err).Error("Failed to open tab", map[string]interface{}{"url": req.URL})
			return fromError(c, utils.NewInternalServerError("Failed to open page: "+err.Error()), requestID)
		}
		return c.JSON(http.StatusCreated, tabResponse(tab, requestID))
	}
}

// ListTabsHandler lists the open tabs
func ListTabsHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tabs := reg.List()
		out := make([]models.TabResponse, 0, len(tabs))
		for _, t := range tabs {
			out = append(out, tabResponse(t, requestID))
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"tabs": out, "request_id": requestID})
	}
}

// GetTabHandler returns a tab's orchestrator state and notices
func GetTabHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		return c.JSON(http.StatusOK, TabStatus{
			TabResponse: tabResponse(tab, requestID),
			Snapshot:    tab.Orchestrator().Snapshot(),
			Notices:     tab.Notices(),
			Watching:    tab.Watching(),
		})
	}
}

// CloseTabHandler closes a tab
func CloseTabHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, logger := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		if err := reg.Close(tab.ID); err != nil {
			logger.WithError(err).Warn("Failed to close tab cleanly")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ApplyHandler clicks the apply button and runs the orchestrator
func ApplyHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		report, err := tab.ClickApply(c.Request().Context())
		if err != nil {
			return fromError(c, utils.NewFieldNotFoundError(err.Error()), requestID)
		}
		return runResponse(c, tab, report, requestID)
	}
}

// GenerateHandler starts a run on demand. With ?force=true a finished
// page is reset first so it generates again.
func GenerateHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		if c.QueryParam("force") == "true" {
			tab.Orchestrator().Reset()
		}
		report := tab.Run(c.Request().Context(), orchestrator.TriggerManual)
		return runResponse(c, tab, report, requestID)
	}
}

func runResponse(c echo.Context, tab *browser.Tab, report orchestrator.Report, requestID string) error {
	switch report.Outcome {
	case orchestrator.OutcomeAuthRequired:
		return fromError(c, utils.NewAuthError(report.Reason), requestID)
	case orchestrator.OutcomeLimitReached:
		return c.JSON(http.StatusPaymentRequired, RunResponse{TabID: tab.ID, Report: report, RequestID: requestID})
	default:
		return c.JSON(http.StatusOK, RunResponse{TabID: tab.ID, Report: report, RequestID: requestID})
	}
}

// FillHandler writes user supplied text into the cover-letter field
func FillHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}

		var req models.FillRequest
		if ok, err := bind(c, &req, requestID); !ok {
			return err
		}

		if !tab.Orchestrator().FillCoverLetter(c.Request().Context(), req.Text) {
			return fromError(c, utils.NewFieldNotFoundError("cover letter"), requestID)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"filled": true, "request_id": requestID})
	}
}

// QuestionsHandler lists the screening questions on a tab
func QuestionsHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"questions":  tab.Orchestrator().DetectQuestions(),
			"request_id": requestID,
		})
	}
}

// RunsResponse lists a tab's recorded runs, newest first
type RunsResponse struct {
	TabID     string         `json:"tab_id"`
	Runs      []*history.Run `json:"runs"`
	RequestID string         `json:"request_id"`
}

// RunsHandler returns the run history of a tab
func RunsHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "tabs")
		tab, err := lookupTab(c, reg, requestID)
		if tab == nil {
			return err
		}
		runs, err := reg.Runs().ListByTab(c.Request().Context(), tab.ID)
		if err != nil {
			return fromError(c, err, requestID)
		}
		return c.JSON(http.StatusOK, RunsResponse{TabID: tab.ID, Runs: runs, RequestID: requestID})
	}
}

// GetRunHandler returns one run by ID
func GetRunHandler(reg *browser.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := requestLogger(c, "runs")
		id := c.Param("run_id")
		if err := validate.Var(id, "required,uuid"); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid run id", requestID)
		}
		run, err := reg.Runs().Get(c.Request().Context(), id)
		if err != nil {
			return fromError(c, err, requestID)
		}
		return c.JSON(http.StatusOK, run)
	}
}
