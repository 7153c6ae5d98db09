package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"proposal-autofill/internal/logging/types"
)

type (
	LogLevel   = types.LogLevel
	LogAdapter = types.LogAdapter
	Logger     = types.Logger
)

const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)

// MultiLogger fans every entry out to its adapters through logrus hooks
type MultiLogger struct {
	base     *logrus.Logger
	entry    *logrus.Entry
	adapters *adapterSet
}

type adapterSet struct {
	mu    sync.RWMutex
	items map[string]types.LogAdapter
}

// NewMultiLogger creates a logger with no adapters attached
func NewMultiLogger() *MultiLogger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	base.SetLevel(logrus.InfoLevel)

	ml := &MultiLogger{
		base:     base,
		entry:    logrus.NewEntry(base),
		adapters: &adapterSet{items: make(map[string]types.LogAdapter)},
	}
	base.ExitFunc = func(code int) {
		_ = ml.Close()
		os.Exit(code)
	}
	return ml
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.withExtra(fields).Debug(message)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.withExtra(fields).Info(message)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.withExtra(fields).Warn(message)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.withExtra(fields).Error(message)
}

// Fatal logs, closes every adapter and exits
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.withExtra(fields).Fatal(message)
}

func (l *MultiLogger) withExtra(fields []map[string]interface{}) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

func (l *MultiLogger) derive(entry *logrus.Entry) *MultiLogger {
	return &MultiLogger{base: l.base, entry: entry, adapters: l.adapters}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return l.derive(l.entry.WithContext(ctx))
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	return l.derive(l.entry.WithField(key, value))
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(l.entry.WithFields(logrus.Fields(fields)))
}

func (l *MultiLogger) WithError(err error) Logger {
	return l.derive(l.entry.WithError(err))
}

// SetLevel sets the minimum log level
func (l *MultiLogger) SetLevel(level LogLevel) {
	l.base.SetLevel(level)
}

// GetLevel returns the current log level
func (l *MultiLogger) GetLevel() LogLevel {
	return l.base.GetLevel()
}

// AddAdapter registers an adapter as a logrus hook
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.adapters.mu.Lock()
	defer l.adapters.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.adapters.items[name]; exists {
		return fmt.Errorf("adapter %s already exists", name)
	}

	l.adapters.items[name] = adapter
	l.base.AddHook(adapter)
	return nil
}

// AdapterNames lists the registered adapters
func (l *MultiLogger) AdapterNames() []string {
	l.adapters.mu.RLock()
	defer l.adapters.mu.RUnlock()

	names := make([]string, 0, len(l.adapters.items))
	for name := range l.adapters.items {
		names = append(names, name)
	}
	return names
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.adapters.mu.Lock()
	defer l.adapters.mu.Unlock()

	var errs []string
	for name, adapter := range l.adapters.items {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("adapter %s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close adapters: %s", strings.Join(errs, ", "))
	}
	return nil
}

// ParseLogLevel parses a string log level, defaulting to info
func ParseLogLevel(levelStr string) LogLevel {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil {
		return InfoLevel
	}
	return level
}
