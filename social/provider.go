package social

import (
	"context"
	"time"
)

// SocialProvider is an OAuth2 authorization code provider.
type SocialProvider interface {
	// Name returns the provider identifier, e.g. "twitter".
	Name() string

	// AuthCodeURL returns the URL users are redirected to for consent.
	AuthCodeURL(state string, opts ...AuthCodeOption) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error)

	// UserInfo fetches the user's profile using the access token.
	UserInfo(ctx context.Context, token *Token) (*SocialProfile, error)
}

// AuthCodeOption configures the authorization URL.
type AuthCodeOption func(*AuthCodeConfig)

// WithScopes adds scopes to the auth request.
func WithScopes(scopes ...string) AuthCodeOption {
	return func(c *AuthCodeConfig) {
		c.Scopes = append(c.Scopes, scopes...)
	}
}

// WithPKCE sets the PKCE code challenge.
func WithPKCE(codeChallenge, method string) AuthCodeOption {
	return func(c *AuthCodeConfig) {
		c.CodeChallenge = codeChallenge
		c.CodeChallengeMethod = method
	}
}

// ExchangeOption configures the token exchange.
type ExchangeOption func(*ExchangeConfig)

// WithCodeVerifier sets the PKCE code verifier for token exchange.
func WithCodeVerifier(verifier string) ExchangeOption {
	return func(c *ExchangeConfig) {
		c.CodeVerifier = verifier
	}
}

// AuthCodeConfig is the applied set of AuthCodeOption values
type AuthCodeConfig struct {
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ExchangeConfig is the applied set of ExchangeOption values
type ExchangeConfig struct {
	CodeVerifier string
}

// ApplyAuthCodeOptions starts from the provider default scopes and applies opts
func ApplyAuthCodeOptions(scopes []string, opts ...AuthCodeOption) AuthCodeConfig {
	cfg := AuthCodeConfig{Scopes: append([]string(nil), scopes...)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// ApplyExchangeOptions applies opts
func ApplyExchangeOptions(opts ...ExchangeOption) ExchangeConfig {
	cfg := ExchangeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Token is an OAuth2 token response.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       []string
}

// SocialProfile is the normalized user returned by a provider.
type SocialProfile struct {
	ProviderUserID string
	Provider       string
	Email          string
	Name           string
	Username       string
	AvatarURL      string
	ProfileURL     string
	Raw            map[string]any
}

// DisplayName returns the best available human name
func (p *SocialProfile) DisplayName() string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	case p.Username != "":
		return p.Username
	default:
		return p.ProviderUserID
	}
}
