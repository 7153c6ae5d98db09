// Package browser drives a real Chrome instance: each proposal page is a
// tab with its own orchestrator running against the live DOM.
package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
)

// Manager owns the single browser process shared by all tabs
type Manager struct {
	config   *config.Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	mu       sync.Mutex
	logger   logging.Logger
}

// NewManager prepares the launcher; Chrome starts on the first page
func NewManager(cfg *config.Config) *Manager {
	logger := logging.GetGlobalLogger().WithField("component", "browser")

	l := launcher.New().
		Headless(cfg.Browser.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage")

	if chromePath := systemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser")
	}

	if cfg.Browser.UserDataDir != "" {
		// keeps the marketplace login between runs
		l = l.UserDataDir(cfg.Browser.UserDataDir)
	}
	if cfg.Browser.UserAgent != "" {
		l = l.Set("user-agent", cfg.Browser.UserAgent)
	}

	return &Manager{config: cfg, launcher: l, logger: logger}
}

func (m *Manager) connect() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		return m.browser, nil
	}

	url, err := m.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	m.browser = b
	m.logger.Info("Browser started", map[string]interface{}{
		"headless": m.config.Browser.HeadlessMode,
		"stealth":  m.config.Browser.StealthMode,
	})
	return b, nil
}

// OpenPage creates a page and navigates it to url
func (m *Manager) OpenPage(ctx context.Context, url string) (*rod.Page, error) {
	b, err := m.connect()
	if err != nil {
		return nil, err
	}

	page, err := m.newPage(b)
	if err != nil {
		return nil, err
	}

	timeout := m.config.Browser.NavigationTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = rod.Try(func() {
		page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	m.logger.Debug("Navigated to page", map[string]interface{}{"url": url})
	return page, nil
}

func (m *Manager) newPage(b *rod.Browser) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if m.config.Browser.StealthMode {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1440,
		Height:            900,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		m.logger.WithError(err).Warn("Failed to set viewport")
	}

	if ua := m.config.Browser.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			m.logger.WithError(err).Warn("Failed to set user agent")
		}
	}
	return page, nil
}

// IsHealthy reports whether the browser answers, or has not been started yet
func (m *Manager) IsHealthy() bool {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	if b == nil {
		return true
	}
	_, err := b.Pages()
	return err == nil
}

// Started reports whether Chrome has been launched
func (m *Manager) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Close shuts down the browser process
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	if m.config.Browser.UserDataDir == "" {
		m.launcher.Cleanup()
	}
	m.logger.Info("Browser closed")
	return err
}

// systemChromePath finds an installed Chrome/Chromium
func systemChromePath() string {
	for _, env := range []string{"CHROME_BIN", "CHROME_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
		"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
