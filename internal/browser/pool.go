// Package browser owns the shared headless browser sessions. Launching a
// browser costs a process start and takes up to several seconds, so one
// session per catalog source is created lazily and reused for every
// lookup against that source. Per-lookup isolation comes from cheap
// short-lived pages, not from fresh browsers.
package browser

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"shelfcheck/internal/types"
)

// LaunchFunc starts a browser and returns a connected client.
// It is a field so tests can substitute a stub.
type LaunchFunc func() (*rod.Browser, error)

// SessionPool caches one live browser session per source key.
type SessionPool struct {
	mu       sync.Mutex
	sessions map[string]*rod.Browser
	launch   LaunchFunc
	closed   bool
	logger   *slog.Logger
}

// NewSessionPool creates an empty pool. Sessions are launched on first
// Acquire for each source key.
func NewSessionPool(headless bool, logger *slog.Logger) *SessionPool {
	return &SessionPool{
		sessions: make(map[string]*rod.Browser),
		launch:   func() (*rod.Browser, error) { return launchBrowser(headless) },
		logger:   logger.With("component", "session_pool"),
	}
}

// launchBrowser starts a Chromium instance with flags suitable for
// containerized environments. Sandboxing is disabled because restricted
// execution environments do not permit it.
func launchBrowser(headless bool) (*rod.Browser, error) {
	u, err := launcher.New().
		Headless(headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return b, nil
}

// Acquire returns the live session for the source key, launching one if
// none exists yet. A failed launch is not cached; the next Acquire for
// that key retries from scratch.
func (p *SessionPool) Acquire(source string) (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("acquire %s: %w", source, types.ErrSessionClosed)
	}
	if b, ok := p.sessions[source]; ok {
		return b, nil
	}

	p.logger.Info("launching browser session", "source", source)
	b, err := p.launch()
	if err != nil {
		return nil, fmt.Errorf("session for %s: %w", source, err)
	}
	p.sessions[source] = b
	return b, nil
}

// NewPage opens a fresh blank page on the source's session. Callers own
// the page and must close it when the lookup finishes.
func (p *SessionPool) NewPage(source string) (*rod.Page, error) {
	b, err := p.Acquire(source)
	if err != nil {
		return nil, err
	}
	return b.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// Close tears down every live session. The pool refuses further Acquire
// calls afterwards.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var firstErr error
	for key, b := range p.sessions {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %s: %w", key, err)
		}
		delete(p.sessions, key)
	}
	return firstErr
}

// Len returns the number of live sessions.
func (p *SessionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
