// File: internal/pages/login.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/browser"
)

// LoginPage drives the AUT's login screen.
type LoginPage struct {
	Page
}

// NewLoginPage binds the login screen's locator table.
func NewLoginPage(drv browser.Driver, baseURL string, budget time.Duration, logger *zap.Logger) *LoginPage {
	locators := map[string]schemas.Locator{
		"email":      schemas.ID("email"),
		"password":   schemas.ID("password"),
		"remember":   schemas.ID("remember-me"),
		"submit":     schemas.ID("login-button"),
		errorField:   schemas.CSS(".alert-danger"),
		"login_form": schemas.ID("login-form"),
	}
	return &LoginPage{Page: newPage("login", baseURL, "login_form", locators, drv, budget, logger)}
}

// Login fills the credential fields and submits the form. It does not assert
// the outcome; callers read the dashboard or the error banner afterwards.
func (p *LoginPage) Login(ctx context.Context, email, password string) error {
	if err := p.Fill(ctx, "email", email); err != nil {
		return err
	}
	if err := p.Fill(ctx, "password", password); err != nil {
		return err
	}
	return p.Click(ctx, "submit")
}

// LoginRememberMe is Login with the remember-me box ticked first.
func (p *LoginPage) LoginRememberMe(ctx context.Context, email, password string) error {
	if err := p.Fill(ctx, "email", email); err != nil {
		return err
	}
	if err := p.Fill(ctx, "password", password); err != nil {
		return err
	}
	if err := p.Click(ctx, "remember"); err != nil {
		return err
	}
	return p.Click(ctx, "submit")
}

// PasswordMasked reports whether the password input renders masked.
func (p *LoginPage) PasswordMasked(ctx context.Context) (bool, error) {
	typ, err := p.ReadAttribute(ctx, "password", "type")
	if err != nil {
		return false, err
	}
	return typ == "password", nil
}

// FormVisible is the fast negative check used after a session recycle: a
// single probe, no wait budget.
func (p *LoginPage) FormVisible(ctx context.Context) (bool, error) {
	return p.IsVisible(ctx, "login_form")
}

// AwaitError blocks until the login error banner renders and returns its text.
func (p *LoginPage) AwaitError(ctx context.Context) (string, error) {
	return p.waitErrorText(ctx)
}

// DashboardPage is the screen a successful login lands on.
type DashboardPage struct {
	Page
}

// NewDashboardPage binds the dashboard's locator table. The dashboard has no
// base URL of its own; the AUT redirects to it after login.
func NewDashboardPage(drv browser.Driver, budget time.Duration, logger *zap.Logger) *DashboardPage {
	locators := map[string]schemas.Locator{
		"welcome":   schemas.ID("welcome-message"),
		"logout":    schemas.LinkText("Logout"),
		errorField:  schemas.CSS(".alert-danger"),
		"user_menu": schemas.ID("user-menu"),
	}
	return &DashboardPage{Page: newPage("dashboard", "", "welcome", locators, drv, budget, logger)}
}

// AwaitVisible blocks until the canonical dashboard element renders.
func (p *DashboardPage) AwaitVisible(ctx context.Context) error {
	return p.WaitVisible(ctx, "welcome")
}

// Visible probes once for the canonical dashboard element.
func (p *DashboardPage) Visible(ctx context.Context) (bool, error) {
	return p.IsVisible(ctx, "welcome")
}

// Logout clicks the logout link.
func (p *DashboardPage) Logout(ctx context.Context) error {
	return p.Click(ctx, "logout")
}
