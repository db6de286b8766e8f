package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterAccountMessage asks for a new pending account
type RegisterAccountMessage struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler creates the account and hands it to onCreated,
// which sends the confirmation email.
type RegisterAccountHandler struct {
	users     Users
	hasher    PasswordHasher
	logger    Logger
	onCreated func(ctx context.Context, user *User)
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	_, err := h.handle(ctx, event)
	return err
}

func (h *RegisterAccountHandler) handle(ctx context.Context, event RegisterAccountMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

// Checks run in order: required fields, email uniqueness, password match,
// password length.
func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*User, error) {
	email := strings.TrimSpace(event.Email)
	name := strings.TrimSpace(event.Name)

	if email == "" || name == "" || event.Password == "" || event.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}

	if err := ensureEmailAvailable(ctx, h.users, email, msgCreateFailed); err != nil {
		return nil, err
	}

	if event.Password != event.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if len(event.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, msgCreateFailed).
			WithCode(goerrors.CodeInternal)
	}

	user, err := h.users.Create(ctx, &User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Status:       UserStatusPending,
	})
	if err != nil {
		if IsConflict(err) {
			return nil, WrapSentinel(ErrEmailTaken, err, nil)
		}
		h.logger.Error("register user failed", "email", email, "error", err)
		return nil, storeError(err, msgCreateFailed)
	}

	if h.onCreated != nil {
		h.onCreated(ctx, user)
	}

	return user, nil
}
