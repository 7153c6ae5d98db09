package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"proposal-autofill/internal/api/handlers"
	"proposal-autofill/internal/api/routes"
	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/browser"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/llm"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/prompts"
	"proposal-autofill/internal/service"
	"proposal-autofill/internal/session"
	"proposal-autofill/internal/settings"
	"proposal-autofill/internal/store"
	"proposal-autofill/internal/usage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Proposal Autofill")

	ctx := context.Background()

	st, err := store.New(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open state store")
	}

	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start LLM manager")
	}

	be := backend.NewClient(cfg)
	sess := session.New(st, be, cfg)
	svc := service.New(service.Deps{
		Config:   cfg,
		Store:    st,
		Session:  sess,
		Usage:    usage.New(st, be, sess, cfg),
		Settings: settings.NewLoader(st, cfg),
		Composer: prompts.NewComposer(st, cfg),
		LLM:      llmManager,
		Backend:  be,
	})
	if err := svc.Load(ctx); err != nil {
		logger.WithError(err).Warn("Failed to restore saved session")
	}

	browserManager := browser.NewManager(cfg)
	tabs := browser.NewRegistry(cfg, browserManager, svc)
	svc.SetPages(tabs)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	routes.SetupRoutes(e, cfg, routes.Deps{
		Dispatcher:   svc,
		MetaPrompter: prompts.NewComposer(st, cfg),
		Tabs:         tabs,
		Checks: map[string]handlers.Check{
			"store":   st.Ping,
			"backend": be.Health,
			"llm":     llmManager.CheckHealth,
			"browser": func(context.Context) error {
				if !browserManager.IsHealthy() {
					return fmt.Errorf("browser not responding")
				}
				return nil
			},
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error shutting down server")
		}

		logger.Info("Closing tabs...")
		if err := tabs.CloseAll(); err != nil {
			logger.WithError(err).Error("Error closing tabs")
		}
		if err := browserManager.Close(); err != nil {
			logger.WithError(err).Error("Error closing browser")
		}

		if err := svc.Persist(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error saving session")
		}
		if err := llmManager.Stop(); err != nil {
			logger.WithError(err).Error("Error stopping LLM manager")
		}
		if err := st.Close(); err != nil {
			logger.WithError(err).Error("Error closing state store")
		}

		logger.Info("Server shutdown complete")
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed to start")
	}
	<-done
}
