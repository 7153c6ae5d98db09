package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"proposal-autofill/pkg/models"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

var startTime = time.Now()

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	_, logger := requestLogger(c, "health")
	logger.Debug("Health check requested")

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks:    map[string]string{"api": "ok"},
	})
}

// ReadinessHandler runs every check and reports 503 when one fails
func ReadinessHandler(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, logger := requestLogger(c, "health")

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		results := map[string]string{"api": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WithError(err).Warn("Readiness check failed", map[string]interface{}{"check": name})
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		return c.JSON(status, models.HealthResponse{
			Status:    state,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}
