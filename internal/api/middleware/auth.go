package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskbox/task-api/internal/api/metrics"
	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/token"
)

// UserContextKey is where the gate stores the resolved *domain.User for
// downstream handlers. Handlers read it once; the token is never re-verified
// within a request.
const UserContextKey = "user"

// TokenVerifier abstracts codec verification for the gate.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// TokenChecker abstracts the registry lookup that makes revocation stick.
type TokenChecker interface {
	FindValid(ctx context.Context, token string, now time.Time) (*domain.AuthToken, error)
}

// UserResolver re-resolves the subject user by id. The embedded snapshot is
// deliberately not trusted for authorization; resolution goes through the
// store (cached) for freshness.
type UserResolver interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// Auth is the access gate: it admits a request only when the bearer token is
// cryptographically valid, of access kind, owned by an existing user, and
// still present and unrevoked in the registry. The registry check is what
// lets logout invalidate a token whose signature would otherwise verify
// until its natural expiry.
func Auth(verifier TokenVerifier, users UserResolver, registry TokenChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				metrics.TokenRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid_signature").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			// Refresh tokens never authorize API calls directly.
			if claims.TokenKind() != domain.TokenKindAccess {
				metrics.TokenRejectionsTotal.WithLabelValues("wrong_kind").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			userID, err := claims.UserID()
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid_signature").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			ctx := c.Request().Context()
			user, err := users.FindByID(ctx, userID)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("unknown_user").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			// Revocation wins over a still-valid signature.
			row, err := registry.FindValid(ctx, raw, time.Now().UTC())
			if err != nil || row == nil {
				metrics.TokenRejectionsTotal.WithLabelValues("revoked").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access. Please provide a valid token.")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
