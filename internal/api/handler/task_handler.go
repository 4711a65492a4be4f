package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
)

// TaskHandler handles the /tasks endpoints. Every route sits behind the
// access gate, so the current user is always available.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List returns the user's tasks, optionally filtered by status or a
// substring search over title and description.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        status  query     string  false  "completed or pending"
// @Param        search  query     string  false  "substring match"
// @Success      200     {object}  envelope
// @Failure      401     {object}  envelope
// @Failure      422     {object}  envelope
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var query listTasksQuery
	if err := c.Bind(&query); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid query parameters"))
	}
	if err := c.Validate(&query); err != nil {
		return validationFailure(c, err)
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), ports.ListTasksFilter{
		UserID: user.ID,
		Status: ports.TaskStatusFilter(query.Status),
		Search: query.Search,
	})
	if err != nil {
		return err
	}

	items := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toTaskResponse(t))
	}
	return c.JSON(http.StatusOK, ok("Tasks retrieved successfully", map[string]any{"tasks": items}))
}

// Create adds a new pending task for the user.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      422   {object}  envelope
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid request payload"))
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	task, err := h.service.CreateTask(c.Request().Context(), user.ID, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ok("Task created successfully", map[string]any{"task": toTaskResponse(task)}))
}

// Get returns a single task, 404 when absent or owned by someone else.
//
// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.service.GetTask(c.Request().Context(), id, user.ID)
	if err != nil {
		return taskFailure(c, err)
	}
	return c.JSON(http.StatusOK, ok("Task retrieved successfully", map[string]any{"task": toTaskResponse(task)}))
}

// Update applies a partial update to a task.
//
// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  envelope
// @Failure      404   {object}  envelope
// @Failure      422   {object}  envelope
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid request payload"))
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	task, err := h.service.UpdateTask(c.Request().Context(), id, user.ID, ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		return taskFailure(c, err)
	}
	return c.JSON(http.StatusOK, ok("Task updated successfully", map[string]any{"task": toTaskResponse(task)}))
}

// Delete removes a task permanently.
//
// @Summary      Delete task
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteTask(c.Request().Context(), id, user.ID); err != nil {
		return taskFailure(c, err)
	}
	return c.JSON(http.StatusOK, ok("Task deleted successfully", nil))
}

// Toggle flips a task's completion state.
//
// @Summary      Toggle task completion
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /tasks/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.service.ToggleTask(c.Request().Context(), id, user.ID)
	if err != nil {
		return taskFailure(c, err)
	}
	return c.JSON(http.StatusOK, ok("Task updated successfully", map[string]any{"task": toTaskResponse(task)}))
}

// taskID parses the :id route parameter. A non-numeric id behaves like a
// missing task.
func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	return id, nil
}

func taskFailure(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrTaskNotFound) {
		return c.JSON(http.StatusNotFound, fail("Task not found"))
	}
	return err
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
