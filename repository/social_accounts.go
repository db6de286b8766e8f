package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	auth "github.com/mikempala/social-rest"
	"github.com/mikempala/social-rest/social"
	"github.com/uptrace/bun"
)

// SocialAccountModel is the Bun model for social accounts.
type SocialAccountModel struct {
	bun.BaseModel `bun:"table:social_accounts,alias:sa"`

	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	UserID         uuid.UUID      `bun:"user_id,notnull,type:uuid"`
	Provider       string         `bun:"provider,notnull"`
	ProviderUserID string         `bun:"provider_user_id,notnull"`
	Email          string         `bun:"email"`
	Name           string         `bun:"name"`
	Username       string         `bun:"username"`
	AvatarURL      string         `bun:"avatar_url"`
	AccessToken    string         `bun:"access_token"`
	RefreshToken   string         `bun:"refresh_token"`
	TokenExpiresAt *time.Time     `bun:"token_expires_at"`
	ProfileData    map[string]any `bun:"profile_data,type:jsonb"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt      time.Time      `bun:"updated_at,nullzero,default:current_timestamp"`
}

// SocialAccounts implements social.SocialAccountRepository and
// auth.LinkedAccounts on bun.
type SocialAccounts struct {
	db bun.IDB
}

var (
	_ social.SocialAccountRepository = (*SocialAccounts)(nil)
	_ auth.LinkedAccounts            = (*SocialAccounts)(nil)
)

func NewSocialAccounts(db bun.IDB) *SocialAccounts {
	return &SocialAccounts{db: db}
}

// FindByProviderID returns social.ErrSocialAccountNotFound when nothing is linked
func (r *SocialAccounts) FindByProviderID(ctx context.Context, provider, providerUserID string) (*social.SocialAccount, error) {
	var model SocialAccountModel
	err := r.db.NewSelect().
		Model(&model).
		Where("?TableAlias.provider = ?", provider).
		Where("?TableAlias.provider_user_id = ?", providerUserID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.WrapSentinel(social.ErrSocialAccountNotFound, err, map[string]any{
				"provider":         provider,
				"provider_user_id": providerUserID,
			})
		}
		return nil, err
	}
	return toSocialAccount(&model), nil
}

// FindByUserID lists accounts oldest first, an unlinked user yields an empty slice
func (r *SocialAccounts) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*social.SocialAccount, error) {
	var models []SocialAccountModel
	err := r.db.NewSelect().
		Model(&models).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	accounts := make([]*social.SocialAccount, len(models))
	for i := range models {
		accounts[i] = toSocialAccount(&models[i])
	}
	return accounts, nil
}

// ListLinkedAccounts returns the token free view used by account details
func (r *SocialAccounts) ListLinkedAccounts(ctx context.Context, userID uuid.UUID) ([]auth.LinkedAccount, error) {
	accounts, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	linked := make([]auth.LinkedAccount, 0, len(accounts))
	for _, a := range accounts {
		linked = append(linked, a.LinkedAccount())
	}
	return linked, nil
}

// Upsert inserts the account or refreshes the row already holding
// (provider, provider_user_id). account.ID and CreatedAt are set from the stored row.
func (r *SocialAccounts) Upsert(ctx context.Context, account *social.SocialAccount) error {
	if account == nil {
		return goerrors.New("social account must not be nil", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	model := fromSocialAccount(account)
	model.UpdatedAt = time.Now().UTC()

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (provider, provider_user_id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("email = EXCLUDED.email").
		Set("name = EXCLUDED.name").
		Set("username = EXCLUDED.username").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("token_expires_at = EXCLUDED.token_expires_at").
		Set("profile_data = EXCLUDED.profile_data").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to save social account").
			WithCode(goerrors.CodeInternal)
	}

	account.ID = model.ID
	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}

func toSocialAccount(m *SocialAccountModel) *social.SocialAccount {
	return &social.SocialAccount{
		ID:             m.ID,
		UserID:         m.UserID,
		Provider:       m.Provider,
		ProviderUserID: m.ProviderUserID,
		Email:          m.Email,
		Name:           m.Name,
		Username:       m.Username,
		AvatarURL:      m.AvatarURL,
		AccessToken:    m.AccessToken,
		RefreshToken:   m.RefreshToken,
		TokenExpiresAt: m.TokenExpiresAt,
		ProfileData:    m.ProfileData,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromSocialAccount(a *social.SocialAccount) *SocialAccountModel {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	profileData := a.ProfileData
	if profileData == nil {
		profileData = map[string]any{}
	}

	return &SocialAccountModel{
		ID:             id,
		UserID:         a.UserID,
		Provider:       a.Provider,
		ProviderUserID: a.ProviderUserID,
		Email:          a.Email,
		Name:           a.Name,
		Username:       a.Username,
		AvatarURL:      a.AvatarURL,
		AccessToken:    a.AccessToken,
		RefreshToken:   a.RefreshToken,
		TokenExpiresAt: a.TokenExpiresAt,
		ProfileData:    profileData,
		CreatedAt:      a.CreatedAt,
	}
}
