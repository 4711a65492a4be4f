package ports

import (
	"context"
	"time"

	"github.com/taskbox/task-api/internal/core/domain"
)

// TokenRegistry persists issued tokens server-side. A signed token string is
// only honoured while its registry row exists, is unrevoked, and is unexpired.
type TokenRegistry interface {
	// Record inserts a row for a freshly issued token. Expiry is computed from
	// the registry's configured per-kind lifetime. A duplicate token string
	// yields domain.ErrTokenExists.
	Record(ctx context.Context, userID int64, token string, kind domain.TokenKind, now time.Time) (*domain.AuthToken, error)

	// RevokeAll marks every row of the user as revoked. An empty kind covers
	// both kinds. Idempotent.
	RevokeAll(ctx context.Context, userID int64, kind domain.TokenKind) error

	// RevokeOne revokes the row matching the exact token string and reports
	// whether such a row existed.
	RevokeOne(ctx context.Context, token string) (bool, error)

	// FindValid returns the row for the token string only if it is unrevoked
	// and unexpired at now; (nil, nil) otherwise.
	FindValid(ctx context.Context, token string, now time.Time) (*domain.AuthToken, error)

	// SweepExpired deletes rows that are expired or revoked and returns the
	// number removed. Housekeeping only; never part of validation.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
