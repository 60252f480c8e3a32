// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/veraqa/shoptest/api/schemas"
)

// Config is the single configuration record a scenario run consumes. It is
// loaded once per process; scenarios receive it read-only.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	AUT      AUTConfig      `mapstructure:"aut" yaml:"aut"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	DB       DBConfig       `mapstructure:"db" yaml:"db"`
	Logs     LogFilesConfig `mapstructure:"logs" yaml:"logs"`
	Creds    Credentials    `mapstructure:"credentials" yaml:"credentials"`
	Messages Messages       `mapstructure:"expected_messages" yaml:"expected_messages"`
	JWT      JWTConfig      `mapstructure:"jwt" yaml:"jwt"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// AUTConfig identifies the application under test and its routes. All paths
// are relative to BaseURL; the single base URL canonicalises the host names
// that varied across the source fixtures.
type AUTConfig struct {
	BaseURL string    `mapstructure:"base_url" yaml:"base_url"`
	Pages   PagePaths `mapstructure:"page_paths" yaml:"page_paths"`
	API     APIPaths  `mapstructure:"api_paths" yaml:"api_paths"`
}

// PagePaths enumerates the routes of the screens the page objects drive.
type PagePaths struct {
	Login    string `mapstructure:"login" yaml:"login"`
	Register string `mapstructure:"register" yaml:"register"`
	Search   string `mapstructure:"search" yaml:"search"`
	Cart     string `mapstructure:"cart" yaml:"cart"`
	Profile  string `mapstructure:"profile" yaml:"profile"`
	Recovery string `mapstructure:"recovery" yaml:"recovery"`
}

// APIPaths enumerates the REST endpoints the scenarios call.
type APIPaths struct {
	Register       string `mapstructure:"register" yaml:"register"`
	Login          string `mapstructure:"login" yaml:"login"`
	Profile        string `mapstructure:"profile" yaml:"profile"`
	ProductsSearch string `mapstructure:"products_search" yaml:"products_search"`
	Cart           string `mapstructure:"cart" yaml:"cart"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Kind       string   `mapstructure:"kind" yaml:"kind"`
	Headless   bool     `mapstructure:"headless" yaml:"headless"`
	WindowSize string   `mapstructure:"window_size" yaml:"window_size"`
	ExtraArgs  []string `mapstructure:"extra_args" yaml:"extra_args"`
}

// TimeoutConfig bounds every external call a step makes. No step may block
// past its configured deadline.
type TimeoutConfig struct {
	Wait time.Duration `mapstructure:"wait" yaml:"wait"`
	HTTP time.Duration `mapstructure:"http" yaml:"http"`
	DB   time.Duration `mapstructure:"db" yaml:"db"`
}

// DBConfig holds the connection details for the AUT's PostgreSQL database.
type DBConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"-"`
	Database string `mapstructure:"database" yaml:"database"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN renders the pgx connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// LogFilesConfig points at the AUT's server-side log files.
type LogFilesConfig struct {
	Security    string `mapstructure:"security" yaml:"security"`
	AuthAudit   string `mapstructure:"auth_audit" yaml:"auth_audit"`
	EmailQueue  string `mapstructure:"email_queue" yaml:"email_queue"`
	Application string `mapstructure:"application" yaml:"application"`
}

// Account is one set of test credentials.
type Account struct {
	Email    string `mapstructure:"email" yaml:"email"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
}

// Credentials enumerates the accounts the fixtures rely on.
type Credentials struct {
	ValidUser        Account `mapstructure:"valid_user" yaml:"valid_user"`
	LockedUser       Account `mapstructure:"locked_user" yaml:"locked_user"`
	UnregisteredUser Account `mapstructure:"unregistered_user" yaml:"unregistered_user"`
}

// Messages holds the user-visible strings the AUT is expected to render.
// Assertions compare against these verbatim.
type Messages struct {
	InvalidCredentials  string `mapstructure:"invalid_credentials" yaml:"invalid_credentials"`
	AccountLocked       string `mapstructure:"account_locked" yaml:"account_locked"`
	EmailRequired       string `mapstructure:"email_required" yaml:"email_required"`
	PasswordRequired    string `mapstructure:"password_required" yaml:"password_required"`
	DuplicateEmail      string `mapstructure:"duplicate_email" yaml:"duplicate_email"`
	InvalidQuantity     string `mapstructure:"invalid_quantity" yaml:"invalid_quantity"`
	RegistrationQueued  string `mapstructure:"registration_queued" yaml:"registration_queued"`
	PasswordResetQueued string `mapstructure:"password_reset_queued" yaml:"password_reset_queued"`
	InjectionDetected   string `mapstructure:"injection_detected" yaml:"injection_detected"`
	FailedLoginAudit    string `mapstructure:"failed_login_audit" yaml:"failed_login_audit"`
}

// JWTConfig controls token inspection. Signature verification only runs when
// a shared secret is configured.
type JWTConfig struct {
	SharedSecret string `mapstructure:"shared_secret" yaml:"-"`
}

// SetDefaults initializes default values for the configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "shoptest")
	v.SetDefault("logger.log_file", "shoptest.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- AUT --
	v.SetDefault("aut.page_paths.login", "/login")
	v.SetDefault("aut.page_paths.register", "/register")
	v.SetDefault("aut.page_paths.search", "/products")
	v.SetDefault("aut.page_paths.cart", "/cart")
	v.SetDefault("aut.page_paths.profile", "/profile")
	v.SetDefault("aut.page_paths.recovery", "/recover")
	v.SetDefault("aut.api_paths.register", "/api/auth/register")
	v.SetDefault("aut.api_paths.login", "/api/auth/login")
	v.SetDefault("aut.api_paths.profile", "/api/users/profile")
	v.SetDefault("aut.api_paths.products_search", "/api/products/search")
	v.SetDefault("aut.api_paths.cart", "/api/cart")

	// -- Browser --
	v.SetDefault("browser.kind", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_size", "1366x900")

	// -- Timeouts --
	v.SetDefault("timeouts.wait", "10s")
	v.SetDefault("timeouts.http", "15s")
	v.SetDefault("timeouts.db", "5s")

	// -- DB --
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.database", "ecommerce")
	v.SetDefault("db.sslmode", "disable")

	// -- Logs --
	v.SetDefault("logs.security", "/var/log/aut/security.log")
	v.SetDefault("logs.auth_audit", "/var/log/aut/auth-audit.log")
	v.SetDefault("logs.email_queue", "/var/log/aut/email-queue.log")
	v.SetDefault("logs.application", "/var/log/aut/application.log")

	// -- Expected messages --
	v.SetDefault("expected_messages.invalid_credentials", "Invalid email or password")
	v.SetDefault("expected_messages.account_locked",
		"Account has been locked due to multiple failed login attempts. Please try again after 30 minutes or reset your password")
	v.SetDefault("expected_messages.email_required", "Email is required")
	v.SetDefault("expected_messages.password_required", "Password is required")
	v.SetDefault("expected_messages.duplicate_email", "email already registered")
	v.SetDefault("expected_messages.invalid_quantity", "Invalid quantity")
	v.SetDefault("expected_messages.registration_queued", "registration success")
	v.SetDefault("expected_messages.password_reset_queued", "password reset")
	v.SetDefault("expected_messages.injection_detected", "SQL injection")
	v.SetDefault("expected_messages.failed_login_audit", "Failed login attempt")
}

// NewFromViper unmarshals and validates a configuration instance.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Sensitive values come from the environment, never the config file.
	v.BindEnv("db.password", "SHOPTEST_DB_PASSWORD")
	v.BindEnv("credentials.valid_user.password", "SHOPTEST_VALID_USER_PASSWORD")
	v.BindEnv("jwt.shared_secret", "SHOPTEST_JWT_SECRET")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Log paths may use ~ when pointing at a local AUT checkout.
	for _, p := range []*string{&cfg.Logs.Security, &cfg.Logs.AuthAudit, &cfg.Logs.EmailQueue, &cfg.Logs.Application} {
		if expanded, err := homedir.Expand(*p); err == nil {
			*p = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.AUT.BaseURL == "" {
		return fmt.Errorf("aut.base_url: %w", schemas.ErrConfigMissing)
	}
	switch c.Browser.Kind {
	case "chromium":
	case "firefox":
		return fmt.Errorf("browser.kind 'firefox' is not supported by the CDP driver")
	default:
		return fmt.Errorf("browser.kind must be 'chromium', got %q", c.Browser.Kind)
	}
	if c.Timeouts.Wait <= 0 || c.Timeouts.HTTP <= 0 || c.Timeouts.DB <= 0 {
		return fmt.Errorf("timeouts.wait, timeouts.http and timeouts.db must be positive durations")
	}
	if c.Creds.ValidUser.Email == "" {
		return fmt.Errorf("credentials.valid_user.email: %w", schemas.ErrConfigMissing)
	}
	if c.Messages.InvalidCredentials == "" || c.Messages.AccountLocked == "" {
		return fmt.Errorf("expected_messages.invalid_credentials and expected_messages.account_locked: %w", schemas.ErrConfigMissing)
	}
	return nil
}

// NewDefaultConfig creates a configuration populated with defaults only.
// Callers still need to supply aut.base_url and credentials before Validate
// will accept it; tests use this as a starting point.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}
