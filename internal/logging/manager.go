package logging

import (
	"fmt"
	"io"
	"sync"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging/adapters"
)

// Manager owns the process logger and its adapters
type Manager struct {
	logger *MultiLogger
}

// NewManager creates a manager with an adapterless logger
func NewManager() *Manager {
	return &Manager{logger: NewMultiLogger()}
}

// Initialize initializes the logging system from configuration
func (m *Manager) Initialize(cfg *config.Config) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	enabled := 0
	for _, ac := range cfg.Logging.Adapters {
		if !ac.Enabled {
			continue
		}

		adapter, err := BuildAdapter(AdapterSpec{Name: ac.Name, Type: ac.Type, Options: ac.Options})
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
		}

		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", ac.Name, err)
		}
		enabled++
	}

	if enabled == 0 {
		adapter := adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: cfg.Logging.Format})
		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add stdout adapter: %w", err)
		}
	}

	return nil
}

// GetLogger returns the initialized logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	if m.logger != nil {
		return m.logger.Close()
	}
	return nil
}

var (
	globalManager *Manager
	globalMu      sync.Mutex
)

// InitializeLogging initializes the global logging system
func InitializeLogging(cfg *config.Config) error {
	manager := NewManager()
	if err := manager.Initialize(cfg); err != nil {
		return err
	}

	globalMu.Lock()
	globalManager = manager
	globalMu.Unlock()
	return nil
}

// InitializeWriter installs a global logger writing to w only. CLI tools
// use it to keep logs off stdout.
func InitializeWriter(w io.Writer, level, format string) {
	manager := NewManager()
	manager.logger.SetLevel(ParseLogLevel(level))
	_ = manager.logger.AddAdapter(adapters.NewWriterAdapter("writer", w, format))

	globalMu.Lock()
	globalManager = manager
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger, falling back to JSON on stdout
func GetGlobalLogger() Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		manager := NewManager()
		_ = manager.logger.AddAdapter(adapters.NewStdoutAdapter("fallback_stdout", adapters.StdoutConfig{Format: "json"}))
		globalManager = manager
	}
	return globalManager.GetLogger()
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}

// LogWithRequestID creates a logger with request ID context
func LogWithRequestID(requestID string) Logger {
	return GetGlobalLogger().WithField("request_id", requestID)
}

// Discard returns a logger that drops everything; used by tests
func Discard() Logger {
	return NewMultiLogger()
}
