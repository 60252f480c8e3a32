// File: internal/pages/search.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// SearchPage drives the product-search screen.
type SearchPage struct {
	Page
}

// NewSearchPage binds the search screen's locator table.
func NewSearchPage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *SearchPage {
	locators := map[string]schemas.Locator{
		"query":      schemas.ID("search-input"),
		"submit":     schemas.ID("search-button"),
		"results":    schemas.ID("search-results"),
		"no_results": schemas.CSS(".no-results"),
		errorField:   schemas.CSS(".alert-danger"),
	}
	return &SearchPage{Page: newPage("search", baseURL, "query", locators, drv, budget, logger)}
}

// Search submits a query and waits for the results container to render.
func (p *SearchPage) Search(ctx context.Context, term string) error {
	if err := p.Fill(ctx, "query", term); err != nil {
		return err
	}
	if err := p.Click(ctx, "submit"); err != nil {
		return err
	}
	return p.WaitVisible(ctx, "results")
}

// ResultsText returns the rendered text of the results container.
func (p *SearchPage) ResultsText(ctx context.Context) (string, error) {
	return p.Read(ctx, "results")
}

// NoResultsShown probes once for the empty-results marker.
func (p *SearchPage) NoResultsShown(ctx context.Context) (bool, error) {
	return p.IsVisible(ctx, "no_results")
}
