package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kodbank/internal/models"
	"kodbank/internal/storage"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

var _ storage.UserStore = (*UserStore)(nil)

type UserStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserStore(db *sql.DB, logger zerolog.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// Create inserts a new user row. There is deliberately no pre-insert
// existence check: the unique keys on username and email are the sole
// mechanism resolving duplicate-registration races.
func (s *UserStore) Create(ctx context.Context, user *models.User) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, phone, role, balance) VALUES (?, ?, ?, ?, ?, ?)",
		user.Username, user.Email, user.PasswordHash, nullable(user.Phone), user.Role, user.Balance,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, storage.ErrDuplicateIdentity
		}
		s.logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return 0, classify(err)
	}

	uid, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}
	return int(uid), nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	var phone sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT uid, username, email, password_hash, balance, phone, role FROM users WHERE username = ?",
		username,
	).Scan(&user.UID, &user.Username, &user.Email, &user.PasswordHash, &user.Balance, &phone, &user.Role)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Error fetching user")
		return nil, classify(err)
	}

	user.Phone = phone.String
	return &user, nil
}

func (s *UserStore) FindBalance(ctx context.Context, username string) (string, error) {
	var balance string

	err := s.db.QueryRowContext(ctx,
		"SELECT balance FROM users WHERE username = ?",
		username,
	).Scan(&balance)

	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Error fetching balance")
		return "", classify(err)
	}

	return balance, nil
}

// Delete removes a user row. The user_tokens foreign key cascades, so all of
// the user's session records go with it.
func (s *UserStore) Delete(ctx context.Context, uid int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE uid = ?", uid)
	if err != nil {
		s.logger.Error().Err(err).Int("uid", uid).Msg("Error deleting user")
		return classify(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// classify maps deadline and cancellation failures to the retryable
// ErrStoreUnavailable so callers do not hang on a slow store.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("database error: %w", err)
}
