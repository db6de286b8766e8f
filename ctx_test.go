package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	user := &User{ID: uuid.New()}

	got, ok := FromContext(WithContext(context.Background(), user))
	require.True(t, ok)
	assert.Same(t, user, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithContext(context.Background(), nil))
	assert.False(t, ok)
}

func TestGetFiberUser(t *testing.T) {
	user := &User{ID: uuid.New()}

	tests := []struct {
		name  string
		setup func(c *fiber.Ctx)
		found bool
	}{
		{
			name:  "locals",
			setup: func(c *fiber.Ctx) { c.Locals(DefaultContextKey, user) },
			found: true,
		},
		{
			name:  "user context",
			setup: func(c *fiber.Ctx) { c.SetUserContext(WithContext(c.UserContext(), user)) },
			found: true,
		},
		{
			name:  "missing",
			setup: func(c *fiber.Ctx) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var found bool
			app.Get("/", func(c *fiber.Ctx) error {
				tt.setup(c)
				_, found = GetFiberUser(c, "")
				return nil
			})

			_, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
		})
	}
}
