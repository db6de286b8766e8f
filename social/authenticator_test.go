package social

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mikempala/social-rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delegatedFixture struct {
	provider *stubProvider
	users    *memUsers
	accounts *memAccounts
	issuer   *stubIssuer
	login    *DelegatedLogin
}

func newDelegatedFixture(t *testing.T, seed ...*auth.User) *delegatedFixture {
	t.Helper()
	f := &delegatedFixture{
		provider: newStubProvider(),
		users:    newMemUsers(seed...),
		accounts: newMemAccounts(),
		issuer:   &stubIssuer{},
	}
	f.login = NewDelegatedLogin(f.accounts, f.users, f.issuer,
		WithProvider(NewOAuth2IdentityProvider(f.provider, newFakeStateManager())),
		WithLinkingStrategy(&DefaultLinkingStrategy{Hasher: fastHasher}),
	)
	return f
}

func (f *delegatedFixture) roundTrip(t *testing.T) CallbackData {
	t.Helper()
	redirect, err := f.login.Begin(context.Background(), "twitter")
	require.NoError(t, err)
	return CallbackData{Code: "code-1", State: redirect.State}
}

func TestDelegatedLogin_Providers(t *testing.T) {
	dl := NewDelegatedLogin(newMemAccounts(), newMemUsers(), &stubIssuer{},
		WithProvider(NewOAuth2IdentityProvider(&stubProvider{name: "twitter"}, newFakeStateManager())),
		WithProvider(NewOAuth2IdentityProvider(&stubProvider{name: "github"}, newFakeStateManager())),
		WithProvider(nil),
	)
	assert.Equal(t, []string{"github", "twitter"}, dl.Providers())
}

func TestDelegatedLogin_UnknownProvider(t *testing.T) {
	f := newDelegatedFixture(t)

	_, err := f.login.Begin(context.Background(), "myspace")
	assert.True(t, auth.IsError(err, ErrProviderNotFound))

	_, err = f.login.Complete(context.Background(), "myspace", CallbackData{Code: "c"})
	assert.True(t, auth.IsError(err, ErrProviderNotFound))
}

func TestDelegatedLogin_NewUser(t *testing.T) {
	f := newDelegatedFixture(t)

	result, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
	require.NoError(t, err)

	assert.True(t, result.IsNewUser)
	assert.Equal(t, "twitter", result.Provider)
	assert.Equal(t, "Jack", result.User.Name)
	assert.Equal(t, "2244994945@twitter.invalid", result.User.Email)
	assert.Empty(t, result.User.PasswordHash)
	assert.Equal(t, "signed."+result.User.ID.String(), result.Token)

	account := f.accounts.get("twitter", "2244994945")
	require.NotNil(t, account)
	assert.Equal(t, result.User.ID, account.UserID)
	assert.Equal(t, "access-1", account.AccessToken)
	assert.Equal(t, "refresh-1", account.RefreshToken)
	assert.NotNil(t, account.TokenExpiresAt)
	assert.Equal(t, "jack", account.ProfileData["username"])

	assert.Len(t, f.issuer.issued, 1)
}

func TestDelegatedLogin_ReturningUserRefreshesTokens(t *testing.T) {
	f := newDelegatedFixture(t)

	first, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
	require.NoError(t, err)

	f.provider.token = &Token{AccessToken: "access-2"}
	second, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
	require.NoError(t, err)

	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, f.users.count())

	account := f.accounts.get("twitter", "2244994945")
	require.NotNil(t, account)
	assert.Equal(t, "access-2", account.AccessToken)
	assert.Empty(t, account.RefreshToken)
	assert.Nil(t, account.TokenExpiresAt)
}

func TestDelegatedLogin_LinksExistingEmail(t *testing.T) {
	existing := &auth.User{ID: uuid.New(), Email: "jack@example.com", Name: "Jack D", Status: auth.UserStatusActive, PasswordHash: "hash"}
	f := newDelegatedFixture(t, existing)
	f.provider.profile.Email = "jack@example.com"

	result, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.User.ID)
	assert.False(t, result.IsNewUser)
	assert.Empty(t, result.User.PasswordHash)
	assert.Equal(t, "hash", existing.PasswordHash)
}

func TestDelegatedLogin_Failures(t *testing.T) {
	t.Run("handshake", func(t *testing.T) {
		f := newDelegatedFixture(t)
		_, err := f.login.Complete(context.Background(), "twitter", CallbackData{Error: "access_denied"})
		assert.True(t, auth.IsError(err, ErrAccessDenied))
		assert.Empty(t, f.issuer.issued)
		assert.Zero(t, f.users.count())
	})

	t.Run("account save", func(t *testing.T) {
		f := newDelegatedFixture(t)
		f.accounts.upsertErr = errors.New("disk full")
		_, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
		assert.True(t, auth.IsError(err, ErrLinkingFailed))
		assert.Empty(t, f.issuer.issued)
	})

	t.Run("token issue", func(t *testing.T) {
		f := newDelegatedFixture(t)
		f.issuer.err = errors.New("no key")
		_, err := f.login.Complete(context.Background(), "twitter", f.roundTrip(t))
		assert.EqualError(t, err, "no key")
	})
}
