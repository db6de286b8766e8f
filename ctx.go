package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is the fiber locals key holding the authenticated user
const DefaultContextKey = "user"

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// GetFiberUser returns the user stored by the token middleware, looking at
// the locals first and the user context second
func GetFiberUser(c *fiber.Ctx, key string) (*User, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	if user, ok := c.Locals(key).(*User); ok && user != nil {
		return user, true
	}
	return FromContext(c.UserContext())
}
