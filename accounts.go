package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultSendTimeout = 10 * time.Second

// Store failure messages surfaced to clients
const (
	msgCreateFailed  = "We couldn't create the account"
	msgConfirmFailed = "We couldn't confirm the account"
	msgDetailsFailed = "Unable to retrieve social networks"
	msgUpdateFailed  = "We couldn't update the account"
	msgDeleteFailed  = "We couldn't remove the content"
)

// RegisterInput is the registration payload
type RegisterInput struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
}

// RegisterResult is returned by a successful registration
type RegisterResult struct {
	User    *User
	Message string
}

// UpdateInput carries the only profile fields that may change
type UpdateInput struct {
	Email string
	Name  string
}

// DetailsResult pairs an account with its linked social networks
type DetailsResult struct {
	User           *User           `json:"user"`
	SocialNetworks []LinkedAccount `json:"socialNetworks"`
}

// AccountManager owns account creation, confirmation, update and deletion
type AccountManager struct {
	users        Users
	linked       LinkedAccounts
	hasher       PasswordHasher
	notifier     Notifier
	composer     ConfirmationComposer
	stateMachine UserStateMachine
	logger       Logger
	sendTimeout  time.Duration
	inflight     sync.WaitGroup
	register     *RegisterAccountHandler
	confirm      *ConfirmAccountHandler
}

// AccountOption customizes an AccountManager
type AccountOption func(*AccountManager)

// WithPasswordHasher overrides the bcrypt hasher
func WithPasswordHasher(h PasswordHasher) AccountOption {
	return func(m *AccountManager) {
		if h != nil {
			m.hasher = h
		}
	}
}

// WithLinkedAccounts sets the source of linked social networks for Details
func WithLinkedAccounts(l LinkedAccounts) AccountOption {
	return func(m *AccountManager) {
		m.linked = l
	}
}

// WithAccountLogger sets the logger
func WithAccountLogger(logger Logger) AccountOption {
	return func(m *AccountManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSendTimeout bounds each background notification send
func WithSendTimeout(d time.Duration) AccountOption {
	return func(m *AccountManager) {
		if d > 0 {
			m.sendTimeout = d
		}
	}
}

// WithUserStateMachine overrides the lifecycle state machine
func WithUserStateMachine(sm UserStateMachine) AccountOption {
	return func(m *AccountManager) {
		if sm != nil {
			m.stateMachine = sm
		}
	}
}

// NewAccountManager creates an AccountManager. notifier and composer
// must both be set; confirmation emails are sent in the background.
func NewAccountManager(users Users, notifier Notifier, composer ConfirmationComposer, opts ...AccountOption) *AccountManager {
	m := &AccountManager{
		users:       users,
		notifier:    notifier,
		composer:    composer,
		hasher:      BcryptHasher{},
		logger:      defLogger{},
		sendTimeout: defaultSendTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.stateMachine == nil {
		m.stateMachine = NewUserStateMachine(users, WithStateMachineLogger(m.logger))
	}

	m.register = &RegisterAccountHandler{
		users:     m.users,
		hasher:    m.hasher,
		logger:    m.logger,
		onCreated: m.dispatchConfirmation,
	}
	m.confirm = &ConfirmAccountHandler{
		users:        m.users,
		stateMachine: m.stateMachine,
	}

	return m
}

// Register creates a pending account and emails the confirmation link.
func (m *AccountManager) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	user, err := m.register.handle(ctx, RegisterAccountMessage{
		Email:           in.Email,
		Name:            in.Name,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		User:    user.Sanitized(),
		Message: fmt.Sprintf("User was successfully created! An email was sent to %s to confirm the account", user.Email),
	}, nil
}

// Confirm activates the account behind a confirmation link id.
// Confirming an active account succeeds without writing.
func (m *AccountManager) Confirm(ctx context.Context, encodedID string) (*User, error) {
	user, err := m.confirm.handle(ctx, ConfirmAccountMessage{ID: encodedID})
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// RegisterHandler returns the handler behind Register, for command dispatch
func (m *AccountManager) RegisterHandler() *RegisterAccountHandler {
	return m.register
}

// ConfirmHandler returns the handler behind Confirm, for command dispatch
func (m *AccountManager) ConfirmHandler() *ConfirmAccountHandler {
	return m.confirm
}

// Details returns an already authenticated user with its linked social
// networks. The user is not fetched again.
func (m *AccountManager) Details(ctx context.Context, user *User) (*DetailsResult, error) {
	if user == nil {
		return nil, ErrInvalidToken
	}

	networks := []LinkedAccount{}
	if m.linked != nil {
		found, err := m.linked.ListLinkedAccounts(ctx, user.ID)
		if err != nil {
			return nil, storeError(err, msgDetailsFailed)
		}
		if found != nil {
			networks = found
		}
	}

	return &DetailsResult{
		User:           user.Sanitized(),
		SocialNetworks: networks,
	}, nil
}

// Update changes email and name. Blank fields are rejected before the
// email is looked up. The uniqueness check is by email alone,
// so resubmitting the caller's own email is reported as a conflict.
func (m *AccountManager) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)

	if email == "" || name == "" {
		return nil, ErrBlankProfile
	}

	uid, err := decodeAccountID(id)
	if err != nil {
		return nil, err
	}

	if err := ensureEmailAvailable(ctx, m.users, email, msgUpdateFailed); err != nil {
		return nil, err
	}

	user, err := m.users.UpdateProfile(ctx, uid, email, name)
	if err != nil {
		if IsConflict(err) || IsNotFound(err) {
			return nil, err
		}
		return nil, storeError(err, msgUpdateFailed)
	}

	return user.Sanitized(), nil
}

// Delete removes the account. Linked social accounts are left in place.
func (m *AccountManager) Delete(ctx context.Context, id string) error {
	uid, err := decodeAccountID(id)
	if err != nil {
		return err
	}

	if err := m.users.Delete(ctx, uid); err != nil {
		return storeError(err, msgDeleteFailed)
	}

	return nil
}

// Wait blocks until every in flight confirmation email has been handed
// to the notifier or timed out.
func (m *AccountManager) Wait() {
	m.inflight.Wait()
}

func ensureEmailAvailable(ctx context.Context, users Users, email, failMsg string) error {
	_, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case IsNotFound(err):
		return nil
	default:
		return storeError(err, failMsg)
	}
}

func (m *AccountManager) dispatchConfirmation(ctx context.Context, user *User) {
	if m.notifier == nil || m.composer == nil {
		m.logger.Warn("confirmation email skipped, no notifier configured", "user_id", user.ID)
		return
	}

	n, err := m.composer.ComposeConfirmation(user)
	if err != nil {
		m.logger.Error("compose confirmation email failed", "user_id", user.ID, "error", err)
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.sendTimeout)
		defer cancel()

		if err := m.notifier.Send(sendCtx, n); err != nil {
			m.logger.Error("send confirmation email failed", "user_id", user.ID, "to", n.To, "error", err)
			return
		}
		m.logger.Info("confirmation email sent", "user_id", user.ID, "to", n.To)
	}()
}

func decodeAccountID(encoded string) (uuid.UUID, error) {
	raw, err := url.PathUnescape(encoded)
	if err != nil {
		return uuid.Nil, WrapSentinel(ErrAccountNotFound, err, nil)
	}

	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, WrapSentinel(ErrAccountNotFound, err, map[string]any{"id": raw})
	}

	return id, nil
}
