// File: internal/pages/page.go

// Package pages declares one object per screen of the AUT. Each page binds a
// locator table to a fixed vocabulary of semantic operations; DOM changes in
// the AUT are localised to a single table. Pages never call each other;
// cross-page flows belong to the scenario layer.
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// Object is the capability set every page exposes. The orchestrator can
// reference pages generically through it; page-specific composites (Login,
// Search, …) live on the concrete types.
type Object interface {
	Name() string
	Go(ctx context.Context) error
	Fill(ctx context.Context, field, value string) error
	Click(ctx context.Context, control string) error
	Read(ctx context.Context, field string) (string, error)
	ReadAttribute(ctx context.Context, field, attr string) (string, error)
	IsVisible(ctx context.Context, field string) (bool, error)
	ErrorText(ctx context.Context) (string, error)
}

// errorField is the conventional locator-table key for a page's error banner.
const errorField = "error_message"

// Page is the shared implementation every screen embeds. Element handles are
// never cached: each operation re-resolves its locator through the wait
// primitives.
type Page struct {
	name      string
	url       string
	canonical string
	locators  map[string]schemas.Locator
	drv       browser.Driver
	budget    time.Duration
	log       *zap.Logger
}

func newPage(name, url, canonical string, locators map[string]schemas.Locator, drv browser.Driver, budget time.Duration, logger *zap.Logger) Page {
	return Page{
		name:      name,
		url:       url,
		canonical: canonical,
		locators:  locators,
		drv:       drv,
		budget:    budget,
		log:       logger.Named("pages").With(zap.String("page", name)),
	}
}

// Name returns the page name.
func (p *Page) Name() string { return p.name }

func (p *Page) locator(field string) (schemas.Locator, error) {
	loc, ok := p.locators[field]
	if !ok {
		return schemas.Locator{}, fmt.Errorf("page %s declares no element %q: %w", p.name, field, schemas.ErrElementNotFound)
	}
	return loc, nil
}

// Go navigates to the page's base URL and waits for its canonical element.
func (p *Page) Go(ctx context.Context) error {
	if p.url == "" {
		return fmt.Errorf("page %s has no base URL", p.name)
	}
	if err := p.drv.Navigate(ctx, p.url); err != nil {
		return err
	}
	loc, err := p.locator(p.canonical)
	if err != nil {
		return err
	}
	_, err = p.drv.WaitFor(ctx, loc, browser.Visible(), p.budget)
	return err
}

// Fill waits for the field to be visible and types the value into it.
func (p *Page) Fill(ctx context.Context, field, value string) error {
	loc, err := p.locator(field)
	if err != nil {
		return err
	}
	if _, err := p.drv.WaitFor(ctx, loc, browser.Visible(), p.budget); err != nil {
		return err
	}
	return p.drv.Fill(ctx, loc, value)
}

// Click waits for the control to be clickable and clicks it.
func (p *Page) Click(ctx context.Context, control string) error {
	loc, err := p.locator(control)
	if err != nil {
		return err
	}
	obs, err := p.drv.WaitFor(ctx, loc, browser.Clickable(), p.budget)
	if err != nil {
		if errors.Is(err, schemas.ErrTimeout) && obs.Found {
			return fmt.Errorf("%v: %w", err, schemas.ErrElementNotInteractable)
		}
		return err
	}
	return p.drv.Click(ctx, loc)
}

// Read waits for the field and returns its trimmed rendered text.
func (p *Page) Read(ctx context.Context, field string) (string, error) {
	loc, err := p.locator(field)
	if err != nil {
		return "", err
	}
	obs, err := p.drv.WaitFor(ctx, loc, browser.Visible(), p.budget)
	if err != nil {
		return "", err
	}
	return obs.Text, nil
}

// ReadAttribute waits for the field and returns the named attribute.
func (p *Page) ReadAttribute(ctx context.Context, field, attr string) (string, error) {
	loc, err := p.locator(field)
	if err != nil {
		return "", err
	}
	obs, err := p.drv.WaitFor(ctx, loc, browser.Present(), p.budget)
	if err != nil {
		return "", err
	}
	return obs.Attrs[attr], nil
}

// IsVisible probes the field once with a zero budget. Fields that may
// legitimately be absent are checked this way so negative checks stay fast.
func (p *Page) IsVisible(ctx context.Context, field string) (bool, error) {
	loc, err := p.locator(field)
	if err != nil {
		return false, err
	}
	obs, err := p.drv.WaitFor(ctx, loc, browser.Visible(), 0)
	if err != nil {
		if isTimeout(err) {
			return false, nil
		}
		return false, err
	}
	return obs.Found && obs.Visible, nil
}

// WaitVisible blocks until the field is visible, under the page budget.
func (p *Page) WaitVisible(ctx context.Context, field string) error {
	loc, err := p.locator(field)
	if err != nil {
		return err
	}
	_, err = p.drv.WaitFor(ctx, loc, browser.Visible(), p.budget)
	return err
}

// ErrorText returns the page's error banner text, or empty when no banner is
// shown. Absence is not an error.
func (p *Page) ErrorText(ctx context.Context) (string, error) {
	loc, err := p.locator(errorField)
	if err != nil {
		return "", err
	}
	obs, waitErr := p.drv.WaitFor(ctx, loc, browser.Visible(), 0)
	if waitErr != nil {
		if isTimeout(waitErr) {
			return "", nil
		}
		return "", waitErr
	}
	return obs.Text, nil
}

// waitErrorText blocks for the error banner to appear; used where the AUT
// renders the banner asynchronously after a submit.
func (p *Page) waitErrorText(ctx context.Context) (string, error) {
	loc, err := p.locator(errorField)
	if err != nil {
		return "", err
	}
	obs, err := p.drv.WaitFor(ctx, loc, browser.Visible(), p.budget)
	if err != nil {
		return "", err
	}
	return obs.Text, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, schemas.ErrTimeout)
}
