// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/config"
)

// Session owns exactly one browser process and its CDP connection. A scenario
// creates one session at start and destroys it at the end; browser-restart
// scenarios call Recycle, which is a full teardown followed by a fresh launch
// with identical options.
type Session struct {
	id         string
	logger     *zap.Logger
	baseLogger *zap.Logger
	cfg        config.BrowserConfig

	navTimeout time.Duration

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	poisoned  atomic.Bool
	closeOnce sync.Once
}

// NewSession launches a browser with the configured options and verifies the
// CDP connection is alive.
func NewSession(parentCtx context.Context, cfg config.BrowserConfig, navTimeout time.Duration, logger *zap.Logger) (*Session, error) {
	s := &Session{
		id:         uuid.New().String(),
		cfg:        cfg,
		navTimeout: navTimeout,
		baseLogger: logger,
	}
	s.logger = logger.Named("browser").With(zap.String("session_id", s.id))

	opts, err := allocatorOptions(cfg)
	if err != nil {
		return nil, err
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(parentCtx, opts...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	// An empty Run starts the browser process eagerly so launch failures
	// surface here instead of on the first step.
	startCtx, startCancel := context.WithTimeout(s.ctx, navTimeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.logger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

func allocatorOptions(cfg config.BrowserConfig) ([]chromedp.ExecAllocatorOption, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)

	if cfg.WindowSize != "" {
		w, h, err := parseWindowSize(cfg.WindowSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.WindowSize(w, h))
	}

	for _, arg := range cfg.ExtraArgs {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts, nil
}

func parseWindowSize(s string) (int, int, error) {
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return 0, 0, fmt.Errorf("window_size must be WIDTHxHEIGHT, got %q", s)
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("window_size must be WIDTHxHEIGHT, got %q", s)
	}
	return w, h, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Healthy reports whether the session can still accept commands.
func (s *Session) Healthy() bool { return !s.poisoned.Load() }

// run executes chromedp actions under the session context with a bounded
// deadline, and marks the session poisoned when the browser process died.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.poisoned.Load() {
		return schemas.ErrSessionPoisoned
	}

	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, timeout)
		defer tcancel()
	}

	err := chromedp.Run(runCtx, actions...)
	if err != nil && s.ctx.Err() != nil {
		// The session context died underneath us: the driver process is gone.
		s.poison(err)
		return fmt.Errorf("driver process lost: %w", schemas.ErrSessionPoisoned)
	}
	return err
}

func (s *Session) poison(cause error) {
	if s.poisoned.CompareAndSwap(false, true) {
		s.logger.Error("Session poisoned; further calls will fail fast.", zap.Error(cause))
	}
}

// Navigate loads the URL in the top frame.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	return s.run(ctx, s.navTimeout, chromedp.Navigate(url))
}

// CurrentURL reports the top frame's URL.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.navTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Probe resolves the locator against the live DOM and reports what it sees.
// Implements the Prober interface consumed by WaitFor.
func (s *Session) Probe(ctx context.Context, loc schemas.Locator) (Observation, error) {
	script, err := probeScript(loc)
	if err != nil {
		return Observation{}, err
	}
	var obs Observation
	if err := s.run(ctx, pollInterval*5, chromedp.Evaluate(script, &obs)); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// WaitFor polls the locator until the condition holds or the budget expires.
func (s *Session) WaitFor(ctx context.Context, loc schemas.Locator, cond Condition, budget time.Duration) (Observation, error) {
	return WaitFor(ctx, s, loc, cond, budget)
}

// Fill clears the element and types the value. The element must be visible
// first; typing into a hidden field hides real AUT regressions.
func (s *Session) Fill(ctx context.Context, loc schemas.Locator, value string) error {
	sel, opt, err := queryOptions(loc)
	if err != nil {
		return err
	}
	return s.run(ctx, s.navTimeout,
		chromedp.WaitVisible(sel, opt),
		chromedp.SetValue(sel, "", opt),
		chromedp.SendKeys(sel, value, opt),
	)
}

// Click dispatches a click to the element.
func (s *Session) Click(ctx context.Context, loc schemas.Locator) error {
	sel, opt, err := queryOptions(loc)
	if err != nil {
		return err
	}
	return s.run(ctx, s.navTimeout, chromedp.Click(sel, opt))
}

// SnapshotCookies captures all cookies the browser currently holds, in the
// order the driver reports them.
func (s *Session) SnapshotCookies(ctx context.Context) (schemas.CookieBag, error) {
	var bag schemas.CookieBag
	err := s.run(ctx, s.navTimeout, chromedp.ActionFunc(func(cctx context.Context) error {
		cookies, err := network.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			bag = append(bag, schemas.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return bag, nil
}

// RestoreCookies writes the bag back into the browser. The caller must have
// navigated to the cookie domain first; setting cookies for a foreign origin
// is silently ignored by the driver. Expiry is coerced to whole seconds.
func (s *Session) RestoreCookies(ctx context.Context, bag schemas.CookieBag) error {
	return s.run(ctx, s.navTimeout, chromedp.ActionFunc(func(cctx context.Context) error {
		for _, c := range bag {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if c.Expires > 0 {
				expiry := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&expiry)
			}
			if err := p.Do(cctx); err != nil {
				return fmt.Errorf("failed to restore cookie %q: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Recycle destroys this session and launches a fresh one with identical
// options. No in-memory authentication state survives; anything the next
// session knows arrives via RestoreCookies.
func (s *Session) Recycle(parentCtx context.Context) (*Session, error) {
	s.Close()
	s.logger.Info("Recycling browser session.")
	return NewSession(parentCtx, s.cfg, s.navTimeout, s.baseLogger)
}

// Close tears the browser down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")
		s.cancel()
		s.allocCancel()
	})
}

// combineContext derives a context cancelled when either input is. Session
// operations must respect both the session lifecycle and the step deadline.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
