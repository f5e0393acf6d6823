package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/travelease/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/travelease/internal/dbx"
)

// Session is what is needed to resume a sign-in after a restart.
type Session struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionStore persists the current session. Load returns (nil, nil) when
// nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

const (
	keyIDToken      = "id_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "id_token_expires_at"
)

// MetadataSessionStore keeps the session in the local metadata table.
type MetadataSessionStore struct {
	db *sql.DB
}

func NewMetadataSessionStore(db *sql.DB) *MetadataSessionStore {
	return &MetadataSessionStore{db: db}
}

// Load reads the keys in one transaction so it never sees a half-written
// session.
func (s *MetadataSessionStore) Load(ctx context.Context) (*Session, error) {
	var sess *Session
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		sess = nil
		repo := metadata.NewSQLiteRepository(tx)

		id, err := repo.Get(ctx, keyIDToken)
		if err != nil {
			return err
		}
		refresh, err := repo.Get(ctx, keyRefreshToken)
		if err != nil {
			return err
		}
		if len(id) == 0 || len(refresh) == 0 {
			return nil
		}

		exp, err := repo.Get(ctx, keyExpiresAt)
		if err != nil {
			return err
		}
		sess = &Session{IDToken: string(id), RefreshToken: string(refresh)}
		if t, err := time.Parse(time.RFC3339, string(exp)); err == nil {
			sess.ExpiresAt = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Save writes all keys in one transaction so a crash never leaves a token
// paired with the wrong refresh token.
func (s *MetadataSessionStore) Save(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyIDToken, []byte(sess.IDToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyRefreshToken, []byte(sess.RefreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, keyExpiresAt, []byte(sess.ExpiresAt.UTC().Format(time.RFC3339)))
	})
}

func (s *MetadataSessionStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, k := range []string{keyIDToken, keyRefreshToken, keyExpiresAt} {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}
