package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
)

// TaskService implements ownership-scoped task management. It trusts the
// caller-supplied userID, which the Access Gate has already resolved.
type TaskService struct {
	repo ports.TaskRepository
	log  zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, log: log}
}

func (s *TaskService) CreateTask(ctx context.Context, userID int64, input ports.CreateTaskInput) (*domain.Task, error) {
	now := time.Now().UTC()
	task := &domain.Task{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to create task")
		return nil, err
	}
	return created, nil
}

func (s *TaskService) GetTask(ctx context.Context, id, userID int64) (*domain.Task, error) {
	return s.repo.FindByID(ctx, id, userID)
}

func (s *TaskService) UpdateTask(ctx context.Context, id, userID int64, input ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
		if *input.IsCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}
	task.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, task)
}

func (s *TaskService) DeleteTask(ctx context.Context, id, userID int64) error {
	return s.repo.Delete(ctx, id, userID)
}

// ToggleTask flips completion: completing stamps completed_at, reopening
// clears it.
func (s *TaskService) ToggleTask(ctx context.Context, id, userID int64) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if task.IsCompleted {
		task.IsCompleted = false
		task.CompletedAt = nil
	} else {
		task.IsCompleted = true
		task.CompletedAt = &now
	}
	task.UpdatedAt = now

	return s.repo.Update(ctx, task)
}

func (s *TaskService) ListTasks(ctx context.Context, filter ports.ListTasksFilter) ([]*domain.Task, error) {
	return s.repo.List(ctx, filter)
}
