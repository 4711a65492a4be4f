// Package token implements the signed bearer-token codec: issuing and
// verifying HS256 JWTs that carry the token kind and a minimal user snapshot.
// Verification here proves integrity and freshness only; revocation is the
// token registry's job.
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskbox/task-api/internal/core/domain"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// UserSnapshot is the point-in-time user view embedded in a token payload.
// Access tokens carry the full snapshot; refresh tokens carry the id only.
type UserSnapshot struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Claims is the payload of every token issued by this service.
type Claims struct {
	Kind string        `json:"type"`
	User *UserSnapshot `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// TokenKind returns the embedded kind claim, or "" when absent/unknown.
// Callers treat anything other than the two known kinds as invalid.
func (c *Claims) TokenKind() domain.TokenKind {
	switch domain.TokenKind(c.Kind) {
	case domain.TokenKindAccess:
		return domain.TokenKindAccess
	case domain.TokenKindRefresh:
		return domain.TokenKindRefresh
	default:
		return ""
	}
}

// UserID returns the subject claim as a numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}

// Config holds the process-wide signing settings. Initialised once at startup
// and treated as immutable afterwards.
type Config struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies bearer tokens with a symmetric server secret.
type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewCodec(cfg Config) *Codec {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// Lifetime returns the configured lifetime for a token kind.
func (c *Codec) Lifetime(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// IssueAccess signs a new access token embedding the full user snapshot.
func (c *Codec) IssueAccess(user *domain.User) (string, error) {
	return c.issue(user, domain.TokenKindAccess, &UserSnapshot{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
	})
}

// IssueRefresh signs a new refresh token embedding the user id only.
func (c *Codec) IssueRefresh(user *domain.User) (string, error) {
	return c.issue(user, domain.TokenKindRefresh, &UserSnapshot{ID: user.ID})
}

func (c *Codec) issue(user *domain.User, kind domain.TokenKind, snapshot *UserSnapshot) (string, error) {
	now := c.now().UTC()
	claims := Claims{
		Kind: string(kind),
		User: snapshot,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Lifetime(kind))),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify checks structure, signature, and expiry. Every failure mode collapses
// to domain.ErrInvalidToken: malformed input is an expected, frequent case
// (expired access tokens arrive on every request), never a fault.
func (c *Codec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
