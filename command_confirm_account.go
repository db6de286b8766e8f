package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ConfirmAccountMessage carries the id from a confirmation link
type ConfirmAccountMessage struct {
	ID string `json:"id"`
}

func (e ConfirmAccountMessage) Type() string { return "account.confirm" }

type ConfirmAccountHandler struct {
	users        Users
	stateMachine UserStateMachine
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	_, err := h.handle(ctx, event)
	return err
}

func (h *ConfirmAccountHandler) handle(ctx context.Context, event ConfirmAccountMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) (*User, error) {
	id, err := decodeAccountID(event.ID)
	if err != nil {
		return nil, err
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeError(err, msgConfirmFailed)
	}

	user, err = h.stateMachine.Transition(ctx, user, UserStatusActive, WithTransitionReason("email confirmed"))
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeError(err, msgConfirmFailed)
	}

	return user, nil
}
