// Package dbx holds the transaction plumbing used by the local SQLite
// store. Session tokens are written as several metadata rows that must
// change together, and the background token refresh can race a sign-in
// for the write lock.
package dbx

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so a repository can run
// standalone or inside WithTx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the body of a transaction. It may run more than once when the
// database is busy, so it must not have side effects outside tx.
type TxFunc func(ctx context.Context, tx DBTX) error

const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// BusyAttempts and BusyBackoff bound the retries of a transaction that lost
// the write lock to another connection.
var (
	BusyAttempts = 4
	BusyBackoff  = 25 * time.Millisecond
)

// WithTx runs fn in a transaction and commits it, rolling back when fn
// returns an error or panics. Panics are rethrown. A transaction that fails
// with SQLITE_BUSY or SQLITE_LOCKED is retried from the start.
//
// The session store saves its three keys this way:
//
//	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := metadata.NewSQLiteRepository(tx)
//	    if err := repo.Set(ctx, "id_token", id); err != nil {
//	        return err
//	    }
//	    return repo.Set(ctx, "refresh_token", refresh)
//	})
func WithTx(ctx context.Context, db *sql.DB, fn TxFunc) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil || !IsBusy(err) || attempt >= BusyAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.WithSecondaryError(ctx.Err(), err)
		case <-time.After(time.Duration(attempt) * BusyBackoff):
		}
	}
}

func runTx(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				err = errors.WithSecondaryError(err, rerr)
			}
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = errors.Wrap(cerr, "commit transaction")
		}
	}()

	return fn(ctx, tx)
}

// IsBusy reports whether err is SQLite telling us another connection holds
// the lock. The driver's error exposes the result code through Code().
func IsBusy(err error) bool {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.Code() & 0xff {
	case sqliteBusy, sqliteLocked:
		return true
	}
	return false
}
