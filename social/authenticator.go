package social

import (
	"context"
	"slices"
	"time"

	"github.com/mikempala/social-rest"
)

// TokenIssuer signs session tokens, the same ones direct login issues
type TokenIssuer interface {
	IssueToken(user *auth.User) (string, error)
}

// DelegatedLogin turns a completed provider handshake into a local session.
type DelegatedLogin struct {
	providers       map[string]IdentityProvider
	accountRepo     SocialAccountRepository
	userRepo        auth.Users
	tokenIssuer     TokenIssuer
	linkingStrategy LinkingStrategy
	tx              Transactor
	logger          auth.Logger
}

// LoginResult contains the result of a successful delegated login.
type LoginResult struct {
	User      *auth.User `json:"user"`
	Token     string     `json:"token"`
	IsNewUser bool       `json:"-"`
	Provider  string     `json:"-"`
}

// DelegatedLoginOption configures a DelegatedLogin.
type DelegatedLoginOption func(*DelegatedLogin)

// WithProvider registers an identity provider.
func WithProvider(provider IdentityProvider) DelegatedLoginOption {
	return func(dl *DelegatedLogin) {
		if provider == nil {
			return
		}
		dl.providers[provider.Name()] = provider
	}
}

// WithLinkingStrategy sets a custom user linking strategy.
func WithLinkingStrategy(ls LinkingStrategy) DelegatedLoginOption {
	return func(dl *DelegatedLogin) {
		if ls != nil {
			dl.linkingStrategy = ls
		}
	}
}

// WithTransactor makes user creation and account linking commit together.
// Without one, each store call commits on its own.
func WithTransactor(tx Transactor) DelegatedLoginOption {
	return func(dl *DelegatedLogin) {
		if tx != nil {
			dl.tx = tx
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger auth.Logger) DelegatedLoginOption {
	return func(dl *DelegatedLogin) {
		if logger != nil {
			dl.logger = logger
		}
	}
}

// NewDelegatedLogin creates a new delegated login flow.
func NewDelegatedLogin(
	accountRepo SocialAccountRepository,
	userRepo auth.Users,
	tokenIssuer TokenIssuer,
	opts ...DelegatedLoginOption,
) *DelegatedLogin {
	dl := &DelegatedLogin{
		providers:       make(map[string]IdentityProvider),
		accountRepo:     accountRepo,
		userRepo:        userRepo,
		tokenIssuer:     tokenIssuer,
		linkingStrategy: &DefaultLinkingStrategy{},
		logger:          auth.NopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(dl)
		}
	}

	return dl
}

// Providers returns the registered provider names in order
func (dl *DelegatedLogin) Providers() []string {
	names := make([]string, 0, len(dl.providers))
	for name := range dl.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Begin starts the handshake for a provider.
func (dl *DelegatedLogin) Begin(ctx context.Context, providerName string) (*Redirect, error) {
	provider, err := dl.provider(providerName)
	if err != nil {
		return nil, err
	}
	return provider.BeginHandshake(ctx)
}

// Complete finishes the handshake, links the identity to a local user and
// issues a session token.
func (dl *DelegatedLogin) Complete(ctx context.Context, providerName string, cb CallbackData) (*LoginResult, error) {
	provider, err := dl.provider(providerName)
	if err != nil {
		return nil, err
	}

	identity, err := provider.CompleteHandshake(ctx, cb)
	if err != nil {
		dl.logger.Warn("delegated login handshake failed", "provider", providerName, "error", err)
		return nil, err
	}

	var result *LinkingResult
	err = dl.withinTx(ctx, func(ctx context.Context, users auth.Users, accounts SocialAccountRepository) error {
		resolved, err := dl.linkingStrategy.ResolveUser(ctx, LinkingContext{
			Identity:    identity,
			AccountRepo: accounts,
			UserRepo:    users,
		})
		if err != nil {
			dl.logger.Error("delegated login linking failed", "provider", providerName, "error", err)
			return err
		}
		if resolved == nil || resolved.User == nil {
			return ErrLinkingFailed
		}

		if err := accounts.Upsert(ctx, accountFromIdentity(resolved.User, identity)); err != nil {
			dl.logger.Error("delegated login account save failed", "provider", providerName, "error", err)
			return auth.WrapSentinel(ErrLinkingFailed, err, nil)
		}
		result = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := dl.tokenIssuer.IssueToken(result.User)
	if err != nil {
		return nil, err
	}

	dl.logger.Info("delegated login",
		"provider", providerName,
		"provider_user_id", identity.Profile.ProviderUserID,
		"user_id", result.User.ID,
		"is_new_user", result.IsNewUser,
		"linked", result.Linked,
	)

	return &LoginResult{
		User:      result.User.Sanitized(),
		Token:     token,
		IsNewUser: result.IsNewUser,
		Provider:  providerName,
	}, nil
}

func (dl *DelegatedLogin) withinTx(ctx context.Context, fn func(ctx context.Context, users auth.Users, accounts SocialAccountRepository) error) error {
	if dl.tx == nil {
		return fn(ctx, dl.userRepo, dl.accountRepo)
	}
	return dl.tx.WithinTx(ctx, fn)
}

func (dl *DelegatedLogin) provider(name string) (IdentityProvider, error) {
	provider, ok := dl.providers[name]
	if !ok {
		return nil, auth.WrapSentinel(ErrProviderNotFound, nil, map[string]any{"provider": name})
	}
	return provider, nil
}

func accountFromIdentity(user *auth.User, identity *ExternalIdentity) *SocialAccount {
	profile := identity.Profile
	account := &SocialAccount{
		UserID:         user.ID,
		Provider:       identity.Provider,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
		Name:           profile.Name,
		Username:       profile.Username,
		AvatarURL:      profile.AvatarURL,
		ProfileData:    profile.Raw,
	}

	if token := identity.Token; token != nil {
		account.AccessToken = token.AccessToken
		account.RefreshToken = token.RefreshToken
		if !token.ExpiresAt.IsZero() {
			expiresAt := token.ExpiresAt.UTC().Truncate(time.Second)
			account.TokenExpiresAt = &expiresAt
		}
	}

	return account
}
