// File: internal/pages/cart.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// CartPage drives the shopping-cart screen.
type CartPage struct {
	Page
}

// NewCartPage binds the cart screen's locator table.
func NewCartPage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *CartPage {
	locators := map[string]schemas.Locator{
		"quantity":   schemas.ID("quantity"),
		"add":        schemas.ID("add-to-cart"),
		"badge":      schemas.ID("cart-count"),
		"items":      schemas.CSS(".cart-items"),
		errorField:   schemas.CSS(".alert-danger"),
		"empty_note": schemas.CSS(".cart-empty"),
	}
	return &CartPage{Page: newPage("cart", baseURL, "items", locators, drv, budget, logger)}
}

// SetQuantity types the raw quantity string. Invalid values are typed as-is
// so the AUT's own validation can be exercised.
func (p *CartPage) SetQuantity(ctx context.Context, qty string) error {
	return p.Fill(ctx, "quantity", qty)
}

// Add clicks the add-to-cart control.
func (p *CartPage) Add(ctx context.Context) error {
	return p.Click(ctx, "add")
}

// BadgeCount returns the cart badge's rendered text.
func (p *CartPage) BadgeCount(ctx context.Context) (string, error) {
	return p.Read(ctx, "badge")
}

// AwaitError blocks until the cart error banner renders.
func (p *CartPage) AwaitError(ctx context.Context) (string, error) {
	return p.waitErrorText(ctx)
}
