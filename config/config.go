// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration
type Config struct {
	Port    int    `env:"PORT" envDefault:"3000"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	// ConfirmBaseURL defaults to BASE_URL/account/confirm
	ConfirmBaseURL string `env:"CONFIRM_BASE_URL"`

	Secret   string        `env:"SECRET"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"48h"`

	Database Database

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"noreply@social-rest.local"`
	MailFromName   string `env:"MAIL_FROM_NAME" envDefault:"Social REST"`

	Twitter Twitter

	// OAuthStateKey defaults to SECRET
	OAuthStateKey        string `env:"OAUTH_STATE_KEY"`
	OAuthFailureRedirect string `env:"OAUTH_FAILURE_REDIRECT" envDefault:"/"`

	ExposeErrorDetails bool          `env:"EXPOSE_ERROR_DETAILS" envDefault:"false"`
	Debug              bool          `env:"DEBUG" envDefault:"false"`
	ReadTimeout        time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Database selects the store
type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL    string `env:"DATABASE_URL" envDefault:"file:social-rest.db?cache=shared"`
	Debug  bool   `env:"DATABASE_DEBUG" envDefault:"false"`
}

// Twitter holds the OAuth 2.0 client registered with Twitter
type Twitter struct {
	ClientID     string   `env:"TWITTER_CLIENT_ID"`
	ClientSecret string   `env:"TWITTER_CLIENT_SECRET"`
	CallbackURL  string   `env:"TWITTER_CALLBACK_URL"`
	Scopes       []string `env:"TWITTER_SCOPES" envSeparator:","`
}

// Enabled reports whether delegated login through Twitter is configured
func (t Twitter) Enabled() bool {
	return t.ClientID != "" && t.ClientSecret != ""
}

// Load reads an optional .env file and parses the environment.
// Variables already set win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ConfirmBaseURL == "" {
		c.ConfirmBaseURL = c.BaseURL + "/account/confirm"
	}
	if c.OAuthStateKey == "" {
		c.OAuthStateKey = c.Secret
	}
	if c.Twitter.CallbackURL == "" {
		c.Twitter.CallbackURL = c.BaseURL + "/auth/twitter/callback"
	}
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("SECRET is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && (c.Database.URL == "" || strings.HasPrefix(c.Database.URL, "file:")) {
		errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
	}
	if (c.Twitter.ClientID == "") != (c.Twitter.ClientSecret == "") {
		errs = append(errs, errors.New("TWITTER_CLIENT_ID and TWITTER_CLIENT_SECRET must be set together"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
