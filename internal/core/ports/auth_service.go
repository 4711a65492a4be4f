package ports

import (
	"context"

	"github.com/taskbox/task-api/internal/core/domain"
)

// RegisterInput carries the fields accepted by registration. The password
// arrives in clear and is hashed by the service before it ever reaches a
// repository.
type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login: the user (without hash) plus
// one freshly issued token of each kind.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// RefreshResult carries the single new access token issued by Refresh.
// Refresh deliberately does not rotate the refresh token.
type RefreshResult struct {
	AccessToken string
}

// AuthService orchestrates the credential lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Logout revokes every token of the user owning the presented access
	// token. Best-effort: an unverifiable token is not an error, because the
	// caller's goal (being logged out) already holds.
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
}
