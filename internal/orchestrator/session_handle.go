// File: internal/orchestrator/session_handle.go
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
	"github.com/veraqa/shoptest/internal/config"
)

// sessionHandle wraps the live browser session behind a stable reference so a
// Recycle swaps the underlying process without invalidating the page objects
// already bound to the handle.
type sessionHandle struct {
	mu   sync.Mutex
	sess *browser.Session
}

func newSessionHandle(ctx context.Context, cfg config.BrowserConfig, navTimeout time.Duration, logger *zap.Logger) (*sessionHandle, error) {
	sess, err := browser.NewSession(ctx, cfg, navTimeout, logger)
	if err != nil {
		return nil, err
	}
	return &sessionHandle{sess: sess}, nil
}

func (h *sessionHandle) current() *browser.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sess
}

func (h *sessionHandle) Navigate(ctx context.Context, url string) error {
	return h.current().Navigate(ctx, url)
}

func (h *sessionHandle) CurrentURL(ctx context.Context) (string, error) {
	return h.current().CurrentURL(ctx)
}

func (h *sessionHandle) Probe(ctx context.Context, loc schemas.Locator) (browser.Observation, error) {
	return h.current().Probe(ctx, loc)
}

func (h *sessionHandle) WaitFor(ctx context.Context, loc schemas.Locator, cond browser.Condition, budget time.Duration) (browser.Observation, error) {
	return h.current().WaitFor(ctx, loc, cond, budget)
}

func (h *sessionHandle) Fill(ctx context.Context, loc schemas.Locator, value string) error {
	return h.current().Fill(ctx, loc, value)
}

func (h *sessionHandle) Click(ctx context.Context, loc schemas.Locator) error {
	return h.current().Click(ctx, loc)
}

func (h *sessionHandle) SnapshotCookies(ctx context.Context) (schemas.CookieBag, error) {
	return h.current().SnapshotCookies(ctx)
}

func (h *sessionHandle) RestoreCookies(ctx context.Context, bag schemas.CookieBag) error {
	return h.current().RestoreCookies(ctx, bag)
}

// Recycle tears the current session down and swaps in a fresh one. No cookie
// or in-memory authentication state survives; persistence across a recycle is
// governed solely by an explicit RestoreCookies.
func (h *sessionHandle) Recycle(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	fresh, err := h.sess.Recycle(ctx)
	if err != nil {
		return err
	}
	h.sess = fresh
	return nil
}

func (h *sessionHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess.Close()
}
