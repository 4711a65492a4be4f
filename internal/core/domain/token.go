package domain

import (
	"errors"
	"time"
)

// TokenKind discriminates the two credential types issued by the service.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrTokenExists = errors.New("token already exists")
var ErrTaskNotFound = errors.New("task not found")

// AuthToken is the server-side registry row for an issued credential. The
// signed string itself is self-verifying; this row is the single source of
// truth for revocation.
type AuthToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	Kind      TokenKind `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValid reports whether the row authorizes its token at the given instant:
// not revoked and not past its absolute expiry.
func (t *AuthToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}
