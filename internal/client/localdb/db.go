// Package localdb opens the on-disk SQLite database that keeps the signed-in
// session between runs.
package localdb

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/travelease/internal/client/localdb/migrations"
	"github.com/dmitrijs2005/travelease/internal/filex"

	_ "modernc.org/sqlite"
)

// RunMigrations brings the schema up to date. It is safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return errors.Wrap(err, "create migration provider")
	}
	if _, err := provider.Up(ctx); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// InitDatabase opens (creating if needed) the database at path and applies
// migrations. A leading "~" in path is expanded. ":memory:" is accepted
// for tests.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		var err error
		if path, err = filex.ExpandHome(path); err != nil {
			return nil, err
		}
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, errors.Wrapf(err, "create directory for %s", path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
