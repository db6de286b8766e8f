package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"

	auth "github.com/mikempala/social-rest"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations for driver
func Migrate(ctx context.Context, db *bun.DB, driver string) error {
	dialect := MigrationDialect(driver)

	fsys, err := auth.DialectMigrationsFS(dialect)
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", dialect, err)
	}

	gooseDialect := "sqlite3"
	if dialect == "postgres" {
		gooseDialect = "postgres"
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
