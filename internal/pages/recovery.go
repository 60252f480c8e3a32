// File: internal/pages/recovery.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// RecoveryPage drives the password-reset / username-reminder screen.
type RecoveryPage struct {
	Page
}

// NewRecoveryPage binds the recovery screen's locator table.
func NewRecoveryPage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *RecoveryPage {
	locators := map[string]schemas.Locator{
		"email":         schemas.ID("recovery-email"),
		"reset_tab":     schemas.ID("tab-password-reset"),
		"reminder_tab":  schemas.ID("tab-username-reminder"),
		"submit":        schemas.ID("recovery-submit"),
		"confirmation":  schemas.CSS(".alert-success"),
		errorField:      schemas.CSS(".alert-danger"),
		"recovery_form": schemas.ID("recovery-form"),
	}
	return &RecoveryPage{Page: newPage("recovery", baseURL, "recovery_form", locators, drv, budget, logger)}
}

// RequestPasswordReset submits the reset form for the given address.
func (p *RecoveryPage) RequestPasswordReset(ctx context.Context, email string) error {
	if err := p.Click(ctx, "reset_tab"); err != nil {
		return err
	}
	if err := p.Fill(ctx, "email", email); err != nil {
		return err
	}
	return p.Click(ctx, "submit")
}

// RequestUsernameReminder submits the reminder form for the given address.
func (p *RecoveryPage) RequestUsernameReminder(ctx context.Context, email string) error {
	if err := p.Click(ctx, "reminder_tab"); err != nil {
		return err
	}
	if err := p.Fill(ctx, "email", email); err != nil {
		return err
	}
	return p.Click(ctx, "submit")
}

// ConfirmationText blocks for the queued confirmation banner. The same text
// is shown for registered and unregistered addresses.
func (p *RecoveryPage) ConfirmationText(ctx context.Context) (string, error) {
	return p.Read(ctx, "confirmation")
}
