package services

import (
	"context"
	"errors"

	"kodbank/internal/models"
	"kodbank/internal/storage"

	"github.com/rs/zerolog"
)

// ErrMissingFields indicates incomplete client input, detected before the
// store is touched.
var ErrMissingFields = errors.New("missing required fields")

// ErrInvalidCredentials covers both an unknown username and a wrong
// password; callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserService orchestrates registration, login, and balance lookup over the
// credential store and the password hasher.
type UserService struct {
	users  storage.UserStore
	hasher *PasswordHasher
	logger zerolog.Logger
}

func NewUserService(users storage.UserStore, hasher *PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Register validates the request, hashes the password, and creates the user
// with the Customer role and the default balance. Registration may never set
// any other role.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (int, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return 0, ErrMissingFields
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error hashing password")
		return 0, err
	}

	uid, err := s.users.Create(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         string(models.RoleCustomer),
		Balance:      models.DefaultBalance,
	})
	if err != nil {
		if !errors.Is(err, storage.ErrDuplicateIdentity) {
			s.logger.Error().Err(err).Str("username", req.Username).Msg("Error creating user")
		}
		return 0, err
	}

	s.logger.Info().Int("uid", uid).Str("username", req.Username).Msg("User registered")
	return uid, nil
}

// Authenticate looks the user up and compares the password. An unknown
// username still burns a bcrypt comparison so the failure is
// indistinguishable from a wrong password in both shape and cost.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn().Str("username", username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Balance returns the account balance as its exact fixed-point text.
func (s *UserService) Balance(ctx context.Context, username string) (string, error) {
	return s.users.FindBalance(ctx, username)
}

// Delete removes a user; the store cascades the deletion to the user's
// session tokens.
func (s *UserService) Delete(ctx context.Context, uid int) error {
	if err := s.users.Delete(ctx, uid); err != nil {
		return err
	}
	s.logger.Info().Int("uid", uid).Msg("User deleted")
	return nil
}
