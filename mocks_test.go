package auth_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mikempala/social-rest"
	"github.com/stretchr/testify/mock"
)

// MockUsers implements auth.Users for testing
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *auth.User) *auth.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	created, _ := args.Get(0).(*auth.User)
	return created, args.Error(1)
}

func (m *MockUsers) UpdateProfile(ctx context.Context, id uuid.UUID, email, name string) (*auth.User, error) {
	args := m.Called(ctx, id, email, name)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus) (*auth.User, error) {
	args := m.Called(ctx, id, status)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLinkedAccounts implements auth.LinkedAccounts for testing
type MockLinkedAccounts struct {
	mock.Mock
}

func (m *MockLinkedAccounts) ListLinkedAccounts(ctx context.Context, userID uuid.UUID) ([]auth.LinkedAccount, error) {
	args := m.Called(ctx, userID)
	accounts, _ := args.Get(0).([]auth.LinkedAccount)
	return accounts, args.Error(1)
}

// captureNotifier records every notification it is asked to send
type captureNotifier struct {
	mu   sync.Mutex
	sent []auth.Notification
	err  error
}

func (c *captureNotifier) Send(_ context.Context, n auth.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.err
}

func (c *captureNotifier) Sent() []auth.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]auth.Notification(nil), c.sent...)
}
