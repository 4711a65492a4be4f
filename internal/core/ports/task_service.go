package ports

import (
	"context"
	"time"

	"github.com/taskbox/task-api/internal/core/domain"
)

// CreateTaskInput carries the fields accepted when creating a task. New tasks
// always start pending regardless of input.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// UpdateTaskInput carries a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	IsCompleted *bool
}

// TaskService defines use-case operations for tasks, all scoped to the
// authenticated user.
type TaskService interface {
	CreateTask(ctx context.Context, userID int64, input CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id, userID int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, id, userID int64, input UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id, userID int64) error
	ToggleTask(ctx context.Context, id, userID int64) (*domain.Task, error)
	ListTasks(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, error)
}
