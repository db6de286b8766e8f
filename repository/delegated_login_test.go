package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/mikempala/social-rest"
	"github.com/mikempala/social-rest/repository"
	"github.com/mikempala/social-rest/social"
)

type stubIdentityProvider struct {
	identity *social.ExternalIdentity
}

func (p *stubIdentityProvider) Name() string { return p.identity.Provider }

func (p *stubIdentityProvider) BeginHandshake(context.Context) (*social.Redirect, error) {
	return &social.Redirect{Provider: p.identity.Provider}, nil
}

func (p *stubIdentityProvider) CompleteHandshake(context.Context, social.CallbackData) (*social.ExternalIdentity, error) {
	return p.identity, nil
}

type stubIssuer struct{}

func (stubIssuer) IssueToken(*auth.User) (string, error) { return "token", nil }

type failingAccounts struct {
	social.SocialAccountRepository
	err error
}

func (f failingAccounts) Upsert(context.Context, *social.SocialAccount) error { return f.err }

// failingUpsertTx hands fn the real tx stores with Upsert replaced.
type failingUpsertTx struct {
	inner social.Transactor
	err   error
}

func (f failingUpsertTx) WithinTx(ctx context.Context, fn func(context.Context, auth.Users, social.SocialAccountRepository) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, users auth.Users, accounts social.SocialAccountRepository) error {
		return fn(ctx, users, failingAccounts{SocialAccountRepository: accounts, err: f.err})
	})
}

func newStubProvider(email string) *stubIdentityProvider {
	return &stubIdentityProvider{identity: &social.ExternalIdentity{
		Provider: "twitter",
		Profile: &social.SocialProfile{
			Provider:       "twitter",
			ProviderUserID: "42",
			Email:          email,
			Name:           "Jack",
		},
	}}
}

func TestDelegatedLoginCommitsUserAndLink(t *testing.T) {
	ctx := context.Background()
	m := repository.NewManager(setupTestDB(t))

	dl := social.NewDelegatedLogin(m.SocialAccounts(), m.Users(), stubIssuer{},
		social.WithProvider(newStubProvider("jack@example.com")),
		social.WithTransactor(m),
	)

	result, err := dl.Complete(ctx, "twitter", social.CallbackData{Code: "c", State: "s"})
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)

	user, err := m.Users().GetByEmail(ctx, "jack@example.com")
	require.NoError(t, err)

	account, err := m.SocialAccounts().FindByProviderID(ctx, "twitter", "42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, account.UserID)
}

func TestDelegatedLoginRollsBackUserWhenLinkFails(t *testing.T) {
	ctx := context.Background()
	m := repository.NewManager(setupTestDB(t))
	upsertErr := errors.New("disk full")

	dl := social.NewDelegatedLogin(m.SocialAccounts(), m.Users(), stubIssuer{},
		social.WithProvider(newStubProvider("jack@example.com")),
		social.WithTransactor(failingUpsertTx{inner: m, err: upsertErr}),
	)

	_, err := dl.Complete(ctx, "twitter", social.CallbackData{Code: "c", State: "s"})
	require.Error(t, err)
	assert.True(t, auth.IsError(err, social.ErrLinkingFailed))

	_, err = m.Users().GetByEmail(ctx, "jack@example.com")
	assert.True(t, auth.IsNotFound(err))

	_, err = m.SocialAccounts().FindByProviderID(ctx, "twitter", "42")
	assert.True(t, auth.IsError(err, social.ErrSocialAccountNotFound))
}
