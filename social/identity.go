package social

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/mikempala/social-rest"
)

// Redirect is where the user agent is sent to start a handshake
type Redirect struct {
	URL      string
	State    string
	Provider string
}

// CallbackData is what the provider sends back to the callback route
type CallbackData struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ExternalIdentity is a verified identity asserted by a provider
type ExternalIdentity struct {
	Provider string
	Profile  *SocialProfile
	Token    *Token
}

// IdentityProvider runs a delegated authentication handshake
type IdentityProvider interface {
	Name() string
	BeginHandshake(ctx context.Context) (*Redirect, error)
	CompleteHandshake(ctx context.Context, cb CallbackData) (*ExternalIdentity, error)
}

// OAuth2IdentityProvider runs the authorization code flow with PKCE over a
// SocialProvider. The code verifier travels inside the encrypted state so
// no server side session is needed.
type OAuth2IdentityProvider struct {
	provider     SocialProvider
	stateManager StateManager
	logger       auth.Logger
}

// OAuth2Option customizes an OAuth2IdentityProvider
type OAuth2Option func(*OAuth2IdentityProvider)

// WithIdentityLogger sets the logger
func WithIdentityLogger(logger auth.Logger) OAuth2Option {
	return func(p *OAuth2IdentityProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

var _ IdentityProvider = (*OAuth2IdentityProvider)(nil)

// NewOAuth2IdentityProvider wraps provider
func NewOAuth2IdentityProvider(provider SocialProvider, stateManager StateManager, opts ...OAuth2Option) *OAuth2IdentityProvider {
	p := &OAuth2IdentityProvider{
		provider:     provider,
		stateManager: stateManager,
		logger:       auth.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *OAuth2IdentityProvider) Name() string {
	return p.provider.Name()
}

// BeginHandshake builds the provider consent URL
func (p *OAuth2IdentityProvider) BeginHandshake(ctx context.Context) (*Redirect, error) {
	if p.stateManager == nil {
		return nil, ErrInvalidState
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	stateToken, err := p.stateManager.Encode(&OAuthState{
		Provider:     p.Name(),
		CodeVerifier: codeVerifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	return &Redirect{
		URL:      p.provider.AuthCodeURL(stateToken, WithPKCE(computeCodeChallenge(codeVerifier), "S256")),
		State:    stateToken,
		Provider: p.Name(),
	}, nil
}

// CompleteHandshake verifies the callback and fetches the provider profile
func (p *OAuth2IdentityProvider) CompleteHandshake(ctx context.Context, cb CallbackData) (*ExternalIdentity, error) {
	name := p.Name()

	if cb.Error != "" {
		return nil, auth.WrapSentinel(ErrAccessDenied, nil, map[string]any{
			"provider":          name,
			"error":             cb.Error,
			"error_description": cb.ErrorDescription,
		})
	}

	if p.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := p.stateManager.Decode(cb.State)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, err
		}
		return nil, auth.WrapSentinel(ErrInvalidState, err, nil)
	}

	if state.Provider != name {
		return nil, auth.WrapSentinel(ErrInvalidState, nil, map[string]any{
			"reason":   "provider mismatch",
			"expected": name,
			"got":      state.Provider,
		})
	}

	if cb.Code == "" {
		return nil, auth.WrapSentinel(ErrAccessDenied, nil, map[string]any{"provider": name, "reason": "missing code"})
	}

	token, err := p.provider.Exchange(ctx, cb.Code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, name, "exchange", err)
	}

	profile, err := p.provider.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrUserInfoFailed, name, "user_info", err)
	}
	if profile == nil || profile.ProviderUserID == "" {
		return nil, auth.WrapSentinel(ErrUserInfoFailed, nil, map[string]any{"provider": name, "reason": "empty profile"})
	}
	if profile.Provider == "" {
		profile.Provider = name
	}

	p.logger.Debug("handshake completed", "provider", name, "provider_user_id", profile.ProviderUserID)

	return &ExternalIdentity{
		Provider: name,
		Profile:  profile,
		Token:    token,
	}, nil
}
