package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"proposal-autofill/internal/api/handlers"
	"proposal-autofill/internal/api/middleware"
	"proposal-autofill/internal/browser"
	"proposal-autofill/internal/config"
)

// Deps are the components the routes serve
type Deps struct {
	Dispatcher   handlers.Dispatcher
	MetaPrompter handlers.MetaPrompter
	Tabs         *browser.Registry
	Checks       map[string]handlers.Check
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, d Deps) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation())
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(middleware.CORSConfig(cfg.Server.AllowedOrigins))
	// model-bound routes get the long timeout
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.Server.GenerateTimeout))

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(d.Checks))
		health.GET("/live", handlers.LivenessHandler)
	}

	v1 := e.Group("/api/v1")
	{
		v1.POST("/messages", handlers.MessageHandler(d.Dispatcher))
		v1.GET("/usage", handlers.UsageHandler(d.Dispatcher))

		templates := v1.Group("/templates")
		{
			templates.GET("", handlers.TemplatesHandler(d.MetaPrompter))
			templates.PUT("/:type/meta-prompt", handlers.MetaPromptHandler(d.Dispatcher))
		}

		if d.Tabs != nil {
			tabs := v1.Group("/tabs")
			{
				tabs.POST("", handlers.OpenTabHandler(d.Tabs))
				tabs.GET("", handlers.ListTabsHandler(d.Tabs))
				tabs.GET("/:id", handlers.GetTabHandler(d.Tabs))
				tabs.DELETE("/:id", handlers.CloseTabHandler(d.Tabs))
				tabs.POST("/:id/apply", handlers.ApplyHandler(d.Tabs))
				tabs.POST("/:id/generate", handlers.GenerateHandler(d.Tabs))
				tabs.POST("/:id/fill", handlers.FillHandler(d.Tabs))
				tabs.GET("/:id/questions", handlers.QuestionsHandler(d.Tabs))
				tabs.GET("/:id/runs", handlers.RunsHandler(d.Tabs))
			}
			v1.GET("/runs/:run_id", handlers.GetRunHandler(d.Tabs))
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Proposal Autofill",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
