package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mikempala/social-rest"
)

// SocialAccount is an external identity linked to a local user.
type SocialAccount struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Provider       string         `json:"provider"`
	ProviderUserID string         `json:"provider_user_id"`
	Email          string         `json:"email,omitempty"`
	Name           string         `json:"name,omitempty"`
	Username       string         `json:"username,omitempty"`
	AvatarURL      string         `json:"avatar_url,omitempty"`
	AccessToken    string         `json:"-"`
	RefreshToken   string         `json:"-"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty"`
	ProfileData    map[string]any `json:"profile_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Sanitized returns a copy without token material
func (a *SocialAccount) Sanitized() *SocialAccount {
	if a == nil {
		return nil
	}
	c := *a
	c.AccessToken = ""
	c.RefreshToken = ""
	c.TokenExpiresAt = nil
	return &c
}

// LinkedAccount returns the public view used in account details
func (a *SocialAccount) LinkedAccount() auth.LinkedAccount {
	var linkedAt *time.Time
	if !a.CreatedAt.IsZero() {
		t := a.CreatedAt
		linkedAt = &t
	}
	return auth.LinkedAccount{
		Provider:       a.Provider,
		ProviderUserID: a.ProviderUserID,
		Username:       a.Username,
		Name:           a.Name,
		Email:          a.Email,
		AvatarURL:      a.AvatarURL,
		LinkedAt:       linkedAt,
	}
}

// SocialAccountRepository manages social account persistence.
// FindByProviderID returns ErrSocialAccountNotFound when nothing is linked.
type SocialAccountRepository interface {
	FindByProviderID(ctx context.Context, provider, providerUserID string) (*SocialAccount, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*SocialAccount, error)
	Upsert(ctx context.Context, account *SocialAccount) error
}

// Transactor runs fn with user and social account stores bound to one
// transaction. An error returned by fn rolls both back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, users auth.Users, accounts SocialAccountRepository) error) error
}
