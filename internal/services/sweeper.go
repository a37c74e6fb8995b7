package services

import (
	"context"
	"time"

	"kodbank/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TokenSweeper periodically deletes expired session rows. Without it the
// user_tokens table grows without bound, since every login appends a row and
// verification never touches the store.
type TokenSweeper struct {
	tokens    storage.TokenStore
	interval  time.Duration
	batchSize int
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

func NewTokenSweeper(tokens storage.TokenStore, interval time.Duration, logger zerolog.Logger) *TokenSweeper {
	return &TokenSweeper{
		tokens:    tokens,
		interval:  interval,
		batchSize: 500,
		// Caps delete-batch throughput so a large backlog cannot saturate
		// the shared connection pool.
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes expired tokens in bounded batches until none remain or the
// context is cancelled.
func (s *TokenSweeper) Sweep(ctx context.Context) {
	var removed int64

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		n, err := s.tokens.DeleteExpired(ctx, time.Now(), s.batchSize)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Token sweep failed")
			return
		}
		removed += n

		if n < int64(s.batchSize) {
			break
		}
	}

	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("Expired session tokens swept")
	}
}
