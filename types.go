package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logger used across the package.
// args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Users is the user store. Implementations return ErrAccountNotFound
// for missing rows and ErrEmailTaken for email uniqueness violations.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, name string) (*User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LinkedAccount is an external identity attached to a user.
// It carries no token material.
type LinkedAccount struct {
	Provider       string     `json:"provider"`
	ProviderUserID string     `json:"provider_user_id"`
	Username       string     `json:"username,omitempty"`
	Name           string     `json:"name,omitempty"`
	Email          string     `json:"email,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	LinkedAt       *time.Time `json:"linked_at,omitempty"`
}

// LinkedAccounts lists the external identities owned by a user
type LinkedAccounts interface {
	ListLinkedAccounts(ctx context.Context, userID uuid.UUID) ([]LinkedAccount, error)
}

// Notification is an outbound email
type Notification struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers notifications. Delivery is one way, callers
// only learn about transport failures.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function into a Notifier
type NotifierFunc func(ctx context.Context, n Notification) error

// Send satisfies the Notifier interface
func (f NotifierFunc) Send(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// ConfirmationComposer builds the confirmation email for a new account
type ConfirmationComposer interface {
	ComposeConfirmation(user *User) (Notification, error)
}
