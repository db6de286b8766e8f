package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims binds a session token to a user id
type JWTClaims struct {
	jwt.RegisteredClaims
	UID string `json:"id"`
}

// UserID returns the bound user id, falling back to the subject
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAt returns when the token was minted
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}
