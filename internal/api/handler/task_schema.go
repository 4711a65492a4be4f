package handler

import "time"

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=255"`
	Description string     `json:"description" validate:"omitempty"`
	DueDate     *time.Time `json:"due_date"    validate:"omitempty"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"        validate:"omitempty,max=255"`
	Description *string    `json:"description"  validate:"omitempty"`
	DueDate     *time.Time `json:"due_date"     validate:"omitempty"`
	IsCompleted *bool      `json:"is_completed" validate:"omitempty"`
}

type listTasksQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=completed pending"`
	Search string `query:"search" validate:"omitempty,max=255"`
}

type taskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
