package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle state of an account
type UserStatus string

const (
	// UserStatusPending is an account waiting for email confirmation
	UserStatusPending UserStatus = "pending"
	// UserStatusActive is a confirmed account
	UserStatusActive UserStatus = "active"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Name          string     `bun:"name,notnull" json:"name"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Status        UserStatus `bun:"status,notnull" json:"status"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus defaults an empty status to pending
func (u *User) EnsureStatus() {
	if u != nil && u.Status == "" {
		u.Status = UserStatusPending
	}
}

// IsActive reports whether the account was confirmed
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// Sanitized returns a copy of the user safe to hand to clients
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}
