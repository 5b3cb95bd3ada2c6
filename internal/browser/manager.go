// Package browser owns the shared headless Chrome process and hands out
// isolated browsing surfaces via chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/scout"
)

// ErrShutdown indicates the manager has been shut down and will not hand
// out further surfaces.
var ErrShutdown = errors.New("browser manager is shut down")

// Config controls the shared browser process and surface defaults.
type Config struct {
	UserAgent      string
	Headless       bool
	ViewportWidth  int64
	ViewportHeight int64
	// SettleTimeout bounds the best-effort wait for network quiet after a
	// navigation. A hang here degrades to "proceed anyway".
	SettleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "LandingScout/1.0 (+https://github.com/landingscout/landingscout)"
	}
	if c.ViewportWidth == 0 {
		c.ViewportWidth = 1920
	}
	if c.ViewportHeight == 0 {
		c.ViewportHeight = 1080
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 3 * time.Second
	}
	return c
}

// Manager lazily starts one shared browser process and creates an isolated
// tab context per Acquire. If the process dies between acquires, the stale
// handle is discarded and the process restarted: callers either get a
// working surface or an explicit error.
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	down          bool
}

// NewManager creates a Manager. The browser process is not launched until
// the first Acquire.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Acquire returns a fresh isolated surface backed by its own tab context.
func (m *Manager) Acquire(ctx context.Context) (scout.Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return nil, ErrShutdown
	}
	if err := m.ensureBrowser(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	if err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(m.cfg.ViewportWidth, m.cfg.ViewportHeight, 1, false),
		emulation.SetUserAgentOverride(m.cfg.UserAgent),
		security.SetIgnoreCertificateErrors(true),
		page.SetBypassCSP(true),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorDeny),
	); err != nil {
		tabCancel()
		return nil, fmt.Errorf("create browsing surface: %w", err)
	}

	return &surface{
		tabCtx:        tabCtx,
		cancel:        tabCancel,
		settleTimeout: m.cfg.SettleTimeout,
		logger:        m.logger,
	}, nil
}

// ensureBrowser launches the shared process on first use and relaunches it
// if the existing handle is no longer connected. Callers must hold m.mu.
func (m *Manager) ensureBrowser(ctx context.Context) error {
	if m.browserCtx != nil && m.browserCtx.Err() == nil {
		return nil
	}
	if m.browserCtx != nil {
		m.logger.Warn("browser process disconnected, restarting")
		m.teardownLocked()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(m.cfg.UserAgent),
		chromedp.WindowSize(int(m.cfg.ViewportWidth), int(m.cfg.ViewportHeight)),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	warmupCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	if err := chromedp.Run(warmupCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("launch browser: %w", err)
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel
	m.logger.Info("browser process started")
	return nil
}

func (m *Manager) teardownLocked() {
	if m.browserCancel != nil {
		m.browserCancel()
		m.browserCancel = nil
	}
	if m.allocCancel != nil {
		m.allocCancel()
		m.allocCancel = nil
	}
	m.browserCtx = nil
}

// Shutdown closes the shared browser process. Idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return
	}
	m.down = true
	m.teardownLocked()
	m.logger.Info("browser manager shut down")
}

// forwardCancel propagates cancellation from parent to cancel until the
// returned stop function is called.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
