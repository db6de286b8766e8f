package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

type users struct {
	repo repository.Repository[*User]
	db   bun.IDB
}

// TxUsers is a Users store that can be bound to a transaction
type TxUsers interface {
	Users
	WithTx(tx bun.IDB) Users
}

var _ TxUsers = (*users)(nil)

// NewUsersRepository returns a bun backed Users store
func NewUsersRepository(db *bun.DB) TxUsers {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		repo: repo,
		db:   db,
	}
}

// WithTx returns a store running every query on tx
func (a *users) WithTx(tx bun.IDB) Users {
	return &users{repo: a.repo, db: tx}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapUserStoreError(err, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapUserStoreError(err, map[string]any{"email": email})
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	prepareUserDefaults(record)

	created, err := a.repo.CreateTx(ctx, a.db, record)
	if err != nil {
		return nil, mapUserStoreError(err, map[string]any{"email": record.Email})
	}
	return created, nil
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, email, name string) (*User, error) {
	now := time.Now()
	record := &User{
		ID:        id,
		Email:     email,
		Name:      name,
		UpdatedAt: &now,
	}

	res, err := a.db.NewUpdate().
		Model(record).
		Column("email", "name", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, mapUserStoreError(err, map[string]any{"id": id.String(), "email": email})
	}

	if err := requireAffected(res, id); err != nil {
		return nil, err
	}

	return a.GetByID(ctx, id)
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error) {
	now := time.Now()
	record := &User{
		ID:        id,
		Status:    status,
		UpdatedAt: &now,
	}

	res, err := a.db.NewUpdate().
		Model(record).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, mapUserStoreError(err, map[string]any{"id": id.String()})
	}

	if err := requireAffected(res, id); err != nil {
		return nil, err
	}

	return record, nil
}

// Delete removes the row unconditionally, deleting a missing id is not an error
func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return WrapSentinel(ErrAccountNotFound, nil, map[string]any{"id": id.String()})
	}
	return nil
}

func mapUserStoreError(err error, meta map[string]any) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), repository.IsRecordNotFound(err):
		return WrapSentinel(ErrAccountNotFound, err, meta)
	case IsUniqueViolation(err):
		return WrapSentinel(ErrEmailTaken, err, meta)
	default:
		return err
	}
}

// IsUniqueViolation reports whether err is a unique constraint failure
// from postgres or sqlite
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
