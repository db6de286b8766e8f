package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	auth "github.com/mikempala/social-rest"
	"github.com/mikempala/social-rest/social"
	"github.com/uptrace/bun"
)

// Manager exposes every store backed by one database
type Manager interface {
	repository.Validator
	repository.TransactionManager
	social.Transactor
	Users() auth.Users
	SocialAccounts() *SocialAccounts
}

type mngr struct {
	db             *bun.DB
	users          auth.TxUsers
	socialAccounts *SocialAccounts
}

func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:             db,
		users:          auth.NewUsersRepository(db),
		socialAccounts: NewSocialAccounts(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database")
	}
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	if m.socialAccounts == nil {
		return errors.New("repository social accounts should be initialized")
	}
	return nil
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// WithinTx binds the user and social account stores to a single
// transaction for the duration of fn.
func (m mngr) WithinTx(ctx context.Context, fn func(ctx context.Context, users auth.Users, accounts social.SocialAccountRepository) error) error {
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, m.users.WithTx(tx), NewSocialAccounts(tx))
	})
}

func (m mngr) Users() auth.Users {
	return m.users
}

func (m mngr) SocialAccounts() *SocialAccounts {
	return m.socialAccounts
}
