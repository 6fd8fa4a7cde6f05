package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskmaster-app/taskmaster/internal/board"
	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

type getTaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	ProjectID   *string    `json:"project_id,omitempty"`
	AssigneeID  string     `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		ProjectID:   task.ProjectID,
		AssigneeID:  task.AssigneeID,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type boardResponse struct {
	Todo       []getTaskResponse `json:"todo"`
	InProgress []getTaskResponse `json:"in_progress"`
	Done       []getTaskResponse `json:"done"`
}

func newBoardResponse(cols board.Columns) boardResponse {
	column := func(tasks []models.Task) []getTaskResponse {
		out := make([]getTaskResponse, len(tasks))
		for i := range tasks {
			out[i] = newGetTaskResponse(&tasks[i])
		}
		return out
	}
	return boardResponse{
		Todo:       column(cols.Todo),
		InProgress: column(cols.InProgress),
		Done:       column(cols.Done),
	}
}

func (h *handlerImpl) HandleTaskBoard(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	projectID := c.Param("projectID")
	if projectID == "" {
		h.logger.Error().Msg("no project id provided")
		abort(c, newBadRequestError("no project id provided"))
		return
	}

	_, err := h.projects.GetProjectByID(c, projectID, userID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get project")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	ctrl, err := h.boards.Get(c, projectID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to load board")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newBoardResponse(ctrl.Snapshot()))
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description,omitempty"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	Confirmed   bool    `json:"confirmed"`

	DueDate dueDateSelectors `json:"due_date"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	projectID := c.Param("projectID")
	if projectID == "" {
		h.logger.Error().Msg("no project id provided")
		abort(c, newBadRequestError("no project id provided"))
		return
	}

	_, err := h.projects.GetProjectByID(c, projectID, userID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get project")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	var req createTaskRequest
	err = c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if !req.Confirmed {
		h.logger.Warn().Msg("task creation not confirmed")
		abort(c, newBadRequestError(errTaskNotConfirmed.Error()))
		return
	}

	dueDate, err := assembleDueDate(time.Now(), req.DueDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to assemble due date")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	params := services.CreateTaskParams{
		AssigneeID: userID,
		ProjectID:  &projectID,
		Title:      req.Title,
		Priority:   req.Priority,
		DueDate:    dueDate,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		switch {
		case errors.Is(err, services.ErrInvalidTaskPriority):
			abort(c, newBadRequestError(services.ErrInvalidTaskPriority.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}
	h.boards.AddTask(projectID, task)

	h.logger.Info().
		Str("task_id", task.ID).
		Msg("created task")
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

type advanceTaskResponse struct {
	Task    getTaskResponse `json:"task"`
	Deleted bool            `json:"deleted"`
}

func (h *handlerImpl) HandleAdvanceTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	projectID := c.Param("projectID")
	taskID := c.Param("taskID")
	if projectID == "" || taskID == "" {
		h.logger.Error().Msg("no project or task id provided")
		abort(c, newBadRequestError("no project or task id provided"))
		return
	}

	// Boards are shared per project; the ownership check is the
	// caller's, not the board's.
	_, err := h.projects.GetProjectByID(c, projectID, userID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get project")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	ctrl, err := h.boards.Get(c, projectID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to load board")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := ctrl.Advance(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to advance task")
		switch {
		case errors.Is(err, board.ErrTaskNotFound):
			abort(c, newNotFoundError(board.ErrTaskNotFound.Error()))
		case errors.Is(err, board.ErrTransitionInFlight):
			abort(c, newConflictError(board.ErrTransitionInFlight.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, advanceTaskResponse{
		Task:    newGetTaskResponse(&result.Task),
		Deleted: result.Deleted,
	})
}
