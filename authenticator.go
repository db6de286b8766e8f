package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LogoutMessage is returned by the advisory logout
const LogoutMessage = "Log out success!"

// LoginResult is a verified user with a fresh session token
type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Authenticator verifies credentials and session tokens
type Authenticator struct {
	users        Users
	tokenService TokenService
	hasher       PasswordHasher
	logger       Logger
}

// AuthenticatorOption customizes an Authenticator
type AuthenticatorOption func(*Authenticator)

// WithAuthenticatorHasher overrides the bcrypt hasher used to compare passwords
func WithAuthenticatorHasher(h PasswordHasher) AuthenticatorOption {
	return func(a *Authenticator) {
		if h != nil {
			a.hasher = h
		}
	}
}

// WithAuthenticatorLogger sets the logger
func WithAuthenticatorLogger(logger Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokenService TokenService, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		users:        users,
		tokenService: tokenService,
		hasher:       BcryptHasher{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Login checks email and password and issues a session token.
// Unknown email and wrong password produce the same error.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			a.logger.Warn("Login failed", "email", email, "reason", "unknown email")
			return nil, ErrIncorrectCredentials
		}
		a.logger.Error("Login lookup error", "email", email, "error", err)
		return nil, storeError(err, "We couldn't log in")
	}

	if err := a.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		a.logger.Warn("Login failed", "email", email, "reason", "password mismatch")
		return nil, WrapSentinel(ErrIncorrectCredentials, err, nil)
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Login success", "user_id", user.ID)

	return &LoginResult{
		User:  user.Sanitized(),
		Token: token,
	}, nil
}

// IssueToken signs a session token for user
func (a *Authenticator) IssueToken(user *User) (string, error) {
	token, err := a.tokenService.Generate(user)
	if err != nil {
		a.logger.Error("IssueToken sign error", "error", err)
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "We couldn't issue a token").
			WithCode(goerrors.CodeInternal)
	}
	return token, nil
}

// Logout is advisory only, tokens stay valid until they expire
func (a *Authenticator) Logout(_ context.Context) string {
	return LogoutMessage
}

// VerifyToken validates raw and loads the user it is bound to
func (a *Authenticator) VerifyToken(ctx context.Context, raw string) (*User, error) {
	claims, err := a.tokenService.Validate(raw)
	if err != nil {
		a.logger.Debug("VerifyToken validation failed", "error", err)
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, WrapSentinel(ErrInvalidToken, err, nil)
	}

	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, WrapSentinel(ErrInvalidToken, err, nil)
		}
		a.logger.Error("VerifyToken lookup error", "user_id", id, "error", err)
		return nil, storeError(err, "We couldn't verify the token")
	}

	return user, nil
}
