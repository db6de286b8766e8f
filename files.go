package auth

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed data/templates
var templatesFS embed.FS

// DialectMigrationsFS returns the migrations for dialect ("sqlite" or "postgres")
// rooted at the dialect directory
func DialectMigrationsFS(dialect string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "data/sql/migrations/"+dialect)
}

// GetTemplatesFS returns the email templates
func GetTemplatesFS() fs.FS {
	sub, err := fs.Sub(templatesFS, "data/templates")
	if err != nil {
		panic(err)
	}
	return sub
}
