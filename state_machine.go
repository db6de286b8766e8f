package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	User   *User
	From   UserStatus
	To     UserStatus
	Reason string
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// UserStateMachine defines lifecycle operations for users.
type UserStateMachine interface {
	Transition(ctx context.Context, user *User, target UserStatus, opts ...TransitionOption) (*User, error)
	CurrentStatus(user *User) UserStatus
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*userStateMachine)

// WithStateMachineLogger overrides the logger used to report transitions.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *userStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
// A hook error aborts the transition.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewUserStateMachine returns the default implementation backed by the provided repository.
func NewUserStateMachine(users Users, opts ...StateMachineOption) UserStateMachine {
	sm := &userStateMachine{
		users: users,
		transitions: map[UserStatus]map[UserStatus]struct{}{
			UserStatusPending: {
				UserStatusActive: {},
			},
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type userStateMachine struct {
	users       Users
	transitions map[UserStatus]map[UserStatus]struct{}
	logger      Logger
}

type transitionOptions struct {
	reason      string
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (sm *userStateMachine) Transition(ctx context.Context, user *User, target UserStatus, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, WrapSentinel(ErrInvalidTransition, nil, map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	user.EnsureStatus()
	from := user.Status
	if target == "" {
		return nil, WrapSentinel(ErrInvalidTransition, nil, map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return user, nil
	}

	if !sm.canTransition(from, target) {
		return nil, WrapSentinel(ErrInvalidTransition, nil, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	tc := TransitionContext{
		User:   user,
		From:   from,
		To:     target,
		Reason: options.reason,
	}

	if err := runHooks(ctx, options.beforeHooks, tc); err != nil {
		return nil, err
	}

	updated, err := sm.users.UpdateStatus(ctx, user.ID, target)
	if err != nil {
		return nil, err
	}

	user.Status = target
	if updated != nil {
		user.UpdatedAt = updated.UpdatedAt
	}

	sm.logger.Info("user status changed", "user_id", user.ID, "from", from, "to", target, "reason", options.reason)

	if err := runHooks(ctx, options.afterHooks, tc); err != nil {
		return nil, err
	}

	return user, nil
}

func (sm *userStateMachine) CurrentStatus(user *User) UserStatus {
	if user == nil {
		return ""
	}
	user.EnsureStatus()
	return user.Status
}

func (sm *userStateMachine) canTransition(from, to UserStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func runHooks(ctx context.Context, hooks []TransitionHook, tc TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}
