package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultTokenTTL is how long a session token stays valid
const DefaultTokenTTL = 48 * time.Hour

// TokenService signs and validates session tokens
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(tokenString string) (*JWTClaims, error)
}

// TokenServiceImpl implements TokenService with HS256 JWTs
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption customizes the token service
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenIssuer sets the iss claim, validated on parse
func WithTokenIssuer(issuer string) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.issuer = issuer
	}
}

// WithTokenClock injects a custom clock (useful for tests)
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, opts ...TokenServiceOption) *TokenServiceImpl {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ts := &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}
	return ts
}

// Generate creates a JWT bound to the user id
func (ts *TokenServiceImpl) Generate(user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID: user.ID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT").WithCode(goerrors.CodeInternal)
	}

	return signed, nil
}

// Validate parses and validates a token string
func (ts *TokenServiceImpl) Validate(tokenString string) (*JWTClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, WrapSentinel(ErrTokenExpired, err, nil)
		}
		return nil, WrapSentinel(ErrInvalidToken, err, nil)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
