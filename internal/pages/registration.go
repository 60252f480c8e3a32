// File: internal/pages/registration.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// RegistrationPage drives the AUT's account-registration screen.
type RegistrationPage struct {
	Page
}

// NewRegistrationPage binds the registration screen's locator table.
func NewRegistrationPage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *RegistrationPage {
	locators := map[string]schemas.Locator{
		"username":   schemas.ID("username"),
		"email":      schemas.ID("email"),
		"password":   schemas.ID("password"),
		"confirm":    schemas.ID("confirm-password"),
		"first_name": schemas.ID("first-name"),
		"last_name":  schemas.ID("last-name"),
		"submit":     schemas.ID("register-button"),
		errorField:   schemas.CSS(".alert-danger"),
		"success":    schemas.CSS(".alert-success"),
		"form":       schemas.ID("registration-form"),
	}
	return &RegistrationPage{Page: newPage("registration", baseURL, "form", locators, drv, budget, logger)}
}

// Register fills every field of the registration form and submits it.
func (p *RegistrationPage) Register(ctx context.Context, username, email, password, firstName, lastName string) error {
	fields := []struct{ name, value string }{
		{"username", username},
		{"email", email},
		{"password", password},
		{"confirm", password},
		{"first_name", firstName},
		{"last_name", lastName},
	}
	for _, f := range fields {
		if err := p.Fill(ctx, f.name, f.value); err != nil {
			return err
		}
	}
	return p.Click(ctx, "submit")
}

// SuccessText blocks for the success banner and returns its text.
func (p *RegistrationPage) SuccessText(ctx context.Context) (string, error) {
	return p.Read(ctx, "success")
}

// AwaitError blocks until the registration error banner renders.
func (p *RegistrationPage) AwaitError(ctx context.Context) (string, error) {
	return p.waitErrorText(ctx)
}
