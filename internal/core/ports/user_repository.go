package ports

import (
	"context"

	"github.com/taskbox/task-api/internal/core/domain"
)

// UserRepository defines persistence for user credentials. Uniqueness of
// username and email is enforced by the storage layer, not by pre-checks.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// UserReader is the read-only subset needed on the request hot path.
type UserReader interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
