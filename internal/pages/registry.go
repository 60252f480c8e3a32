// File: internal/pages/registry.go
package pages

import (
	"strings"

	"go.uber.org/zap"

	"github.com/veraqa/shoptest/internal/browser"
	"github.com/veraqa/shoptest/internal/config"
)

// Registry constructs page objects over one driver. Scenarios build a fresh
// registry per session; pages do not outlive the session they were bound to.
type Registry struct {
	drv    browser.Driver
	cfg    *config.Config
	logger *zap.Logger
}

// NewRegistry binds a driver and configuration.
func NewRegistry(drv browser.Driver, cfg *config.Config, logger *zap.Logger) *Registry {
	return &Registry{drv: drv, cfg: cfg, logger: logger}
}

func (r *Registry) pageURL(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(r.cfg.AUT.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// Login returns the login page object.
func (r *Registry) Login() *LoginPage {
	return NewLoginPage(r.drv, r.pageURL(r.cfg.AUT.Pages.Login), r.cfg.Timeouts.Wait, r.logger)
}

// Dashboard returns the dashboard page object.
func (r *Registry) Dashboard() *DashboardPage {
	return NewDashboardPage(r.drv, r.cfg.Timeouts.Wait, r.logger)
}

// Registration returns the registration page object.
func (r *Registry) Registration() *RegistrationPage {
	return NewRegistrationPage(r.drv, r.pageURL(r.cfg.AUT.Pages.Register), r.cfg.Timeouts.Wait, r.logger)
}

// Search returns the product-search page object.
func (r *Registry) Search() *SearchPage {
	return NewSearchPage(r.drv, r.pageURL(r.cfg.AUT.Pages.Search), r.cfg.Timeouts.Wait, r.logger)
}

// Cart returns the cart page object.
func (r *Registry) Cart() *CartPage {
	return NewCartPage(r.drv, r.pageURL(r.cfg.AUT.Pages.Cart), r.cfg.Timeouts.Wait, r.logger)
}

// Profile returns the profile page object.
func (r *Registry) Profile() *ProfilePage {
	return NewProfilePage(r.drv, r.pageURL(r.cfg.AUT.Pages.Profile), r.cfg.Timeouts.Wait, r.logger)
}

// Recovery returns the account-recovery page object.
func (r *Registry) Recovery() *RecoveryPage {
	return NewRecoveryPage(r.drv, r.pageURL(r.cfg.AUT.Pages.Recovery), r.cfg.Timeouts.Wait, r.logger)
}
