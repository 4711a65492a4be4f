package ports

import (
	"context"

	"github.com/taskbox/task-api/internal/core/domain"
)

// TaskStatusFilter narrows task listings by completion state.
type TaskStatusFilter string

const (
	TaskStatusAny       TaskStatusFilter = ""
	TaskStatusCompleted TaskStatusFilter = "completed"
	TaskStatusPending   TaskStatusFilter = "pending"
)

// ListTasksFilter carries the query parameters for listing tasks. UserID is
// always set by the service layer; rows of other users are never visible.
type ListTasksFilter struct {
	UserID int64
	Status TaskStatusFilter
	// Search is a case-insensitive substring match on title or description.
	Search string
}

// TaskRepository defines ownership-scoped persistence for tasks. Every lookup
// filters by both task id and user id so a foreign task behaves as absent.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id, userID int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id, userID int64) error
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, error)
}
