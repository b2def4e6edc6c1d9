// Package browser owns a shared Chromium process and hands out per-request
// incognito pages for the driven-browser extraction strategy.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds browser runtime settings.
type Config struct {
	Headless       bool
	Bin            string // optional explicit Chromium binary
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
	StableWait     time.Duration
}

func (c Config) viewportWidth() int {
	if c.ViewportWidth <= 0 {
		return 1280
	}
	return c.ViewportWidth
}

func (c Config) viewportHeight() int {
	if c.ViewportHeight <= 0 {
		return 900
	}
	return c.ViewportHeight
}

func (c Config) navTimeout() time.Duration {
	if c.NavTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavTimeout
}

func (c Config) stableWait() time.Duration {
	if c.StableWait <= 0 {
		return 2 * time.Second
	}
	return c.StableWait
}

// Manager launches Chromium lazily on first use and keeps the one process
// alive for the life of the server. Each Open call gets its own incognito
// page; the process itself is torn down by Close.
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

func (m *Manager) ensureBrowser() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return m.browser, nil
		}
		m.logger.Warn("stale browser connection, relaunching")
		_ = m.browser.Close()
		m.browser = nil
	}

	launch := launcher.New().Headless(m.cfg.Headless)
	if m.cfg.Bin != "" {
		launch = launch.Bin(m.cfg.Bin)
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	m.logger.Info("browser launched", zap.Bool("headless", m.cfg.Headless))
	m.browser = browser
	return browser, nil
}

// Open creates an incognito page, navigates it to url, and waits for dynamic
// content to settle. The session must be closed by the caller; Close is safe
// on every exit path including a dead request context.
func (m *Manager) Open(ctx context.Context, url string) (*Session, error) {
	browser, err := m.ensureBrowser()
	if err != nil {
		return nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	sess := &Session{
		id:         uuid.NewString(),
		url:        url,
		page:       page,
		stableWait: m.cfg.stableWait(),
		logger:     m.logger,
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.viewportWidth(),
		Height:            m.cfg.viewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.logger.Warn("set viewport failed", zap.String("session", sess.id), zap.Error(err))
	}

	if err := page.Context(ctx).Timeout(m.cfg.navTimeout()).Navigate(url); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	// Social feeds keep mutating; settle is best effort within the request deadline.
	_ = page.Context(ctx).WaitStable(m.cfg.stableWait())

	m.logger.Debug("browser session opened", zap.String("session", sess.id), zap.String("url", url))
	return sess, nil
}

// Close shuts down the Chromium process. Open pages die with it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	return err
}

// Session is one incognito page scoped to a single pipeline run.
type Session struct {
	id         string
	url        string
	page       *rod.Page
	stableWait time.Duration
	logger     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) ID() string { return s.id }

// Text returns the page's reader-visible text, the way the renderer lays it
// out (innerText keeps line breaks that raw DOM text concatenation loses).
func (s *Session) Text(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return "", errors.New("page has no body text")
	}
	return CollapseText(res.Value.String()), nil
}

// Meta parses document metadata that innerText cannot see (title, OpenGraph
// description). Social pages often duplicate the post body there.
func (s *Session) Meta(ctx context.Context) (Meta, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return Meta{}, fmt.Errorf("read page html: %w", err)
	}
	return ParseMeta(html)
}

// WaitQuiet pauses for d, then waits for DOM mutations to settle again.
// Used by the agent when a page is still streaming content in.
func (s *Session) WaitQuiet(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
	}
	return s.page.Context(ctx).WaitStable(s.stableWait)
}

// Close releases the page. Idempotent, and independent of the request
// context so teardown still works after a timeout.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.page.Close()
		if s.closeErr != nil {
			s.logger.Warn("page close failed", zap.String("session", s.id), zap.Error(s.closeErr))
		} else {
			s.logger.Debug("browser session closed", zap.String("session", s.id))
		}
	})
	return s.closeErr
}
