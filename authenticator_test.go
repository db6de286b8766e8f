package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	goerrors "github.com/goliatone/go-errors"
	"github.com/mikempala/social-rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

type spyHasher struct {
	auth.BcryptHasher
	compares int
}

func (s *spyHasher) ComparePasswordAndHash(password, hash string) error {
	s.compares++
	return s.BcryptHasher.ComparePasswordAndHash(password, hash)
}

func newTestAuthenticator(users auth.Users, opts ...auth.AuthenticatorOption) *auth.Authenticator {
	base := []auth.AuthenticatorOption{
		auth.WithAuthenticatorHasher(testHasher),
		auth.WithAuthenticatorLogger(auth.NopLogger{}),
	}
	return auth.NewAuthenticator(users, auth.NewTokenService(testSigningKey, 0), append(base, opts...)...)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := testHasher.HashPassword("secret")
	require.NoError(t, err)

	user := &auth.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		Name:         "Jane",
		PasswordHash: hash,
		Status:       auth.UserStatusPending,
	}

	users := &MockUsers{}
	users.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil).Once()

	authenticator := newTestAuthenticator(users)

	result, err := authenticator.Login(ctx, "jane@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Empty(t, result.User.PasswordHash)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := auth.NewTokenService(testSigningKey, 0).Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID())
	assert.WithinDuration(t, claims.IssuedAt().Add(48*time.Hour), claims.Expires(), time.Second)

	users.AssertExpectations(t)
}

func TestLoginUnknownEmailSkipsCompare(t *testing.T) {
	users := &MockUsers{}
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrAccountNotFound).Once()

	hasher := &spyHasher{BcryptHasher: testHasher}
	authenticator := newTestAuthenticator(users, auth.WithAuthenticatorHasher(hasher))

	_, err := authenticator.Login(context.Background(), "ghost@example.com", "secret")
	assert.True(t, auth.IsError(err, auth.ErrIncorrectCredentials))
	assert.Zero(t, hasher.compares)
}

func TestLoginWrongPasswordMatchesUnknownEmail(t *testing.T) {
	hash, err := testHasher.HashPassword("secret")
	require.NoError(t, err)

	users := &MockUsers{}
	users.On("GetByEmail", mock.Anything, "jane@example.com").
		Return(&auth.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: hash}, nil).Once()
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, auth.ErrAccountNotFound).Once()

	authenticator := newTestAuthenticator(users)

	_, wrongPassword := authenticator.Login(context.Background(), "jane@example.com", "nope")
	_, unknownEmail := authenticator.Login(context.Background(), "ghost@example.com", "secret")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, auth.IsError(wrongPassword, auth.ErrIncorrectCredentials))
	assert.True(t, auth.IsError(unknownEmail, auth.ErrIncorrectCredentials))

	var a, b *goerrors.Error
	require.ErrorAs(t, wrongPassword, &a)
	require.ErrorAs(t, unknownEmail, &b)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, auth.HTTPStatus(a), auth.HTTPStatus(b))
	assert.Equal(t, "Incorrect email or password", a.Message)
}

func TestLoginStoreFailure(t *testing.T) {
	users := &MockUsers{}
	users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := newTestAuthenticator(users).Login(context.Background(), "jane@example.com", "secret")
	assert.True(t, auth.IsStore(err))
}

func TestLogout(t *testing.T) {
	authenticator := newTestAuthenticator(&MockUsers{})

	assert.Equal(t, "Log out success!", authenticator.Logout(context.Background()))
}

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()
	user := &auth.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: "hash"}

	t.Run("resolves bound user", func(t *testing.T) {
		users := &MockUsers{}
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
		authenticator := newTestAuthenticator(users)

		token, err := authenticator.IssueToken(user)
		require.NoError(t, err)

		found, err := authenticator.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "hash", found.PasswordHash, "downstream handlers get the full record")
	})

	t.Run("expired token", func(t *testing.T) {
		minted, err := auth.NewTokenService(testSigningKey, time.Hour,
			auth.WithTokenClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }),
		).Generate(user)
		require.NoError(t, err)

		_, err = newTestAuthenticator(&MockUsers{}).VerifyToken(ctx, minted)
		assert.True(t, auth.IsError(err, auth.ErrTokenExpired))
		assert.True(t, auth.IsAuthentication(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		minted, err := auth.NewTokenService([]byte("other-key"), 0).Generate(user)
		require.NoError(t, err)

		_, err = newTestAuthenticator(&MockUsers{}).VerifyToken(ctx, minted)
		assert.True(t, auth.IsError(err, auth.ErrInvalidToken))
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			UID:              user.ID.String(),
		})
		signed, err := token.SignedString(testSigningKey)
		require.NoError(t, err)

		_, err = newTestAuthenticator(&MockUsers{}).VerifyToken(ctx, signed)
		assert.True(t, auth.IsError(err, auth.ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newTestAuthenticator(&MockUsers{}).VerifyToken(ctx, "not.a.token")
		assert.True(t, auth.IsError(err, auth.ErrInvalidToken))
	})

	t.Run("user no longer exists", func(t *testing.T) {
		users := &MockUsers{}
		users.On("GetByID", mock.Anything, user.ID).Return(nil, auth.ErrAccountNotFound).Once()
		authenticator := newTestAuthenticator(users)

		token, err := authenticator.IssueToken(user)
		require.NoError(t, err)

		_, err = authenticator.VerifyToken(ctx, token)
		assert.True(t, auth.IsError(err, auth.ErrInvalidToken))
	})

	t.Run("non uuid id", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			UID:              "42",
		})
		signed, err := token.SignedString(testSigningKey)
		require.NoError(t, err)

		_, err = newTestAuthenticator(&MockUsers{}).VerifyToken(ctx, signed)
		assert.True(t, auth.IsError(err, auth.ErrInvalidToken))
	})
}
