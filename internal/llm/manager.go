package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

// Manager owns the primary and fallback providers
type Manager struct {
	config   *config.Config
	factory  *LLMFactory
	primary  LLMProvider
	fallback LLMProvider
	limiter  *RateLimiter
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewLLMFactory(cfg),
		limiter: NewRateLimiter(cfg),
		logger:  logging.GetGlobalLogger().WithField("component", "llm_manager"),
	}
}

// NewManagerWithProviders wires explicit providers; fallback may be nil
func NewManagerWithProviders(cfg *config.Config, primary, fallback LLMProvider) *Manager {
	m := NewManager(cfg)
	m.primary = primary
	m.fallback = fallback
	m.healthy = primary != nil
	return m
}

// Start creates the configured providers and checks their health
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{
		"provider": m.config.LLM.Provider,
		"fallback": m.config.LLM.FallbackProvider,
	})

	primary, err := m.factory.CreateProvider(m.config.LLM.Provider)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.primary = primary

	if name := m.config.LLM.FallbackProvider; name != "" && name != m.config.LLM.Provider {
		fallback, err := m.factory.CreateProvider(name)
		if err != nil {
			return fmt.Errorf("failed to create fallback LLM provider: %w", err)
		}
		m.fallback = fallback
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.LLM.Timeout)
	defer cancel()

	m.healthy = false
	for _, p := range m.providers() {
		if err := p.IsHealthy(ctx); err != nil {
			// not fatal: server-issued keys arrive per request
			m.logger.WithError(err).Warn("LLM provider health check failed", map[string]interface{}{
				"provider": p.GetProviderName(),
			})
			continue
		}
		m.healthy = true
	}

	m.logger.Info("LLM manager started", map[string]interface{}{"healthy": m.healthy})
	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.primary = nil
	m.fallback = nil
	m.healthy = false
	return nil
}

func (m *Manager) providers() []LLMProvider {
	var out []LLMProvider
	if m.primary != nil {
		out = append(out, m.primary)
	}
	if m.fallback != nil {
		out = append(out, m.fallback)
	}
	return out
}

// Complete tries the primary provider and then the fallback
func (m *Manager) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.RLock()
	providers := m.providers()
	m.mu.RUnlock()

	if len(providers) == 0 {
		return "", utils.NewLLMError("LLM manager not started or provider not available")
	}

	var failures []string
	for _, p := range providers {
		name := p.GetProviderName()

		if err := m.limiter.Acquire(ctx, name); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		text, err := m.complete(ctx, p, req)
		if err != nil {
			m.limiter.RecordFailure(name, err)
			m.logger.WithError(err).Warn("LLM provider failed", map[string]interface{}{"provider": name})
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		m.limiter.RecordSuccess(name)
		return text, nil
	}

	return "", utils.NewLLMError(strings.Join(failures, "; "))
}

func (m *Manager) complete(ctx context.Context, p LLMProvider, req models.CompletionRequest) (string, error) {
	if m.config.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.LLM.Timeout)
		defer cancel()
	}

	text, err := p.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// IsHealthy reports whether any provider passed its health check
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.primary != nil
}

// GetProviderName returns the name of the primary provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.primary != nil {
		return m.primary.GetProviderName()
	}
	return "none"
}

// CheckHealth performs a health check on the primary provider
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.primary
	m.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("LLM provider not available")
	}

	err := provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = (err == nil)
	m.mu.Unlock()

	return err
}

// Stats exposes the rate limiter counters
func (m *Manager) Stats() map[string]map[string]interface{} {
	return m.limiter.GetAllStats()
}
