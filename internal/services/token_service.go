package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kodbank/internal/models"
	"kodbank/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ErrTokenExpired indicates a well-formed token whose expiry claim has passed.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid covers bad signatures, malformed tokens, and wrong
// signing methods.
var ErrTokenInvalid = errors.New("token invalid")

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	UID      int    `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. The signing key is
// injected once at construction and never read from the environment at call
// time.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	tokens    storage.TokenStore
	logger    zerolog.Logger
}

func NewTokenService(secret string, ttl time.Duration, tokens storage.TokenStore, logger zerolog.Logger) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		ttl:       ttl,
		tokens:    tokens,
		logger:    logger,
	}
}

// Issue signs a session token for the user and persists the matching
// user_tokens row. A signed-but-unpersisted token is not a valid session, so
// persistence failure fails the whole operation.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.ttl)

	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		UID:      user.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.Error().Err(err).Int("uid", user.UID).Msg("Error signing token")
		return "", time.Time{}, err
	}

	if err := s.tokens.Save(ctx, signed, user.UID, expiry); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to persist session: %w", err)
	}

	return signed, expiry, nil
}

// Verify validates the token's signature and expiry claim and returns the
// embedded identity. Verification is purely claim-based; the token store is
// never consulted, so issued tokens cannot be revoked server-side.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
