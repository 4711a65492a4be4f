package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskbox/task-api/internal/api/metrics"
	"github.com/taskbox/task-api/internal/core/ports"
)

const defaultSweepInterval = time.Hour

// TokenSweeper periodically deletes expired and revoked registry rows. Pure
// housekeeping: the rows it removes are already excluded from every validity
// check, so it runs concurrently with request handling without coordination.
type TokenSweeper struct {
	registry ports.TokenRegistry
	interval time.Duration
	log      zerolog.Logger
}

func NewTokenSweeper(registry ports.TokenRegistry, interval time.Duration, log zerolog.Logger) *TokenSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &TokenSweeper{registry: registry, interval: interval, log: log}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *TokenSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce runs a single sweep pass.
func (s *TokenSweeper) SweepOnce(ctx context.Context) {
	deleted, err := s.registry.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("token sweep failed")
		return
	}
	if deleted > 0 {
		metrics.TokensSweptTotal.Add(float64(deleted))
		s.log.Info().Int64("deleted", deleted).Msg("swept expired tokens")
	}
}
