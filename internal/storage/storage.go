package storage

import (
	"context"
	"errors"
	"time"

	"kodbank/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateIdentity indicates a username or email uniqueness conflict.
var ErrDuplicateIdentity = errors.New("username or email already exists")

// ErrStoreUnavailable indicates a transient infrastructure failure, such as
// a query exceeding the caller's deadline.
var ErrStoreUnavailable = errors.New("store unavailable")

// UserStore owns user records. Uniqueness of username and email is enforced
// by the store itself, so concurrent duplicate registrations are resolved by
// the second insert failing with ErrDuplicateIdentity.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (int, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindBalance(ctx context.Context, username string) (string, error)
	Delete(ctx context.Context, uid int) error
}

// TokenStore persists session token records.
type TokenStore interface {
	Save(ctx context.Context, token string, uid int, expiry time.Time) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error)
}
