// File: internal/pages/profile.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// ProfilePage drives the account-profile screen.
type ProfilePage struct {
	Page
}

// NewProfilePage binds the profile screen's locator table.
func NewProfilePage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *ProfilePage {
	locators := map[string]schemas.Locator{
		"email":      schemas.ID("profile-email"),
		"username":   schemas.ID("profile-username"),
		"first_name": schemas.ID("first-name"),
		"last_name":  schemas.ID("last-name"),
		"save":       schemas.ID("save-profile"),
		"success":    schemas.CSS(".alert-success"),
		errorField:   schemas.CSS(".alert-danger"),
	}
	return &ProfilePage{Page: newPage("profile", baseURL, "email", locators, drv, budget, logger)}
}

// UpdateName fills the name fields and saves.
func (p *ProfilePage) UpdateName(ctx context.Context, firstName, lastName string) error {
	if err := p.Fill(ctx, "first_name", firstName); err != nil {
		return err
	}
	if err := p.Fill(ctx, "last_name", lastName); err != nil {
		return err
	}
	return p.Click(ctx, "save")
}

// SavedText blocks for the save confirmation banner.
func (p *ProfilePage) SavedText(ctx context.Context) (string, error) {
	return p.Read(ctx, "success")
}

// Email returns the rendered email value.
func (p *ProfilePage) Email(ctx context.Context) (string, error) {
	return p.ReadAttribute(ctx, "email", "value")
}
