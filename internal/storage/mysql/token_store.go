package mysql

import (
	"context"
	"database/sql"
	"time"

	"kodbank/internal/storage"

	"github.com/rs/zerolog"
)

var _ storage.TokenStore = (*TokenStore)(nil)

type TokenStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTokenStore(db *sql.DB, logger zerolog.Logger) *TokenStore {
	return &TokenStore{db: db, logger: logger}
}

func (s *TokenStore) Save(ctx context.Context, token string, uid int, expiry time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_tokens (token, uid, expiry) VALUES (?, ?, ?)",
		token, uid, expiry,
	)
	if err != nil {
		s.logger.Error().Err(err).Int("uid", uid).Msg("Error saving session token")
		return classify(err)
	}
	return nil
}

// DeleteExpired removes up to limit token rows whose expiry is before the
// given instant and reports how many were removed.
func (s *TokenStore) DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM user_tokens WHERE expiry < ? LIMIT ?",
		before, limit,
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error deleting expired tokens")
		return 0, classify(err)
	}
	return result.RowsAffected()
}
