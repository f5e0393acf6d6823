package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func put(ctx context.Context, tx DBTX, key string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES (?, 'v')`, key)
	return err
}

// sqliteError mimics the driver error, which carries the result code.
type sqliteError struct{ code int }

func (e *sqliteError) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e *sqliteError) Code() int     { return e.code }

func fastRetries(t *testing.T) {
	t.Helper()
	oldAttempts, oldBackoff := BusyAttempts, BusyBackoff
	BusyAttempts, BusyBackoff = 3, time.Millisecond
	t.Cleanup(func() { BusyAttempts, BusyBackoff = oldAttempts, oldBackoff })
}

func TestWithTx_SessionKeysCommitTogether(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		if err := put(ctx, tx, "id_token"); err != nil {
			return err
		}
		return put(ctx, tx, "refresh_token")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, countRows(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, put(ctx, tx, "id_token"))
		return errors.New("refresh token missing")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, db), "half a session must not be stored")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, put(ctx, tx, "id_token"))
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestWithTx_RetriesWhenBusy(t *testing.T) {
	fastRetries(t)
	db := setupDB(t)

	calls := 0
	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		calls++
		if err := put(ctx, tx, fmt.Sprintf("k%d", calls)); err != nil {
			return err
		}
		if calls == 1 {
			return fmt.Errorf("set id_token: %w", &sqliteError{code: sqliteBusy})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, countRows(t, db), "the failed attempt was rolled back")
}

func TestWithTx_GivesUpAfterBusyAttempts(t *testing.T) {
	fastRetries(t)
	db := setupDB(t)

	calls := 0
	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		calls++
		return &sqliteError{code: sqliteLocked}
	})
	require.Error(t, err)
	assert.True(t, IsBusy(err))
	assert.Equal(t, 3, calls)
}

func TestWithTx_OtherErrorsAreNotRetried(t *testing.T) {
	fastRetries(t)
	db := setupDB(t)

	calls := 0
	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		calls++
		return &sqliteError{code: 19} // constraint
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithTx_CancelledWhileWaiting(t *testing.T) {
	fastRetries(t)
	BusyBackoff = time.Hour
	db := setupDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		cancel()
		return &sqliteError{code: sqliteBusy}
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(&sqliteError{code: sqliteBusy}))
	assert.True(t, IsBusy(&sqliteError{code: 517}), "SQLITE_BUSY_SNAPSHOT")
	assert.False(t, IsBusy(&sqliteError{code: 1}))
	assert.False(t, IsBusy(errors.New("database is locked")))
	assert.False(t, IsBusy(nil))
}
