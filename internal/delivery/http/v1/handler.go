package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/board"
	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

type Handler interface {
	HandleSessionGate(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleForgotPassword(c *gin.Context)
	HandleSetSession(c *gin.Context)
	HandleLogout(c *gin.Context)

	HandleLanding(c *gin.Context)
	HandleDashboard(c *gin.Context)

	HandleProjectList(c *gin.Context)
	HandleCreateProject(c *gin.Context)
	HandleProjectDetail(c *gin.Context)

	HandleTaskBoard(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleAdvanceTask(c *gin.Context)
}

type handlerImpl struct {
	logger      zerolog.Logger
	siteRootURL string

	auth      services.AuthService
	sessions  services.SessionService
	users     services.UserService
	projects  services.ProjectService
	tasks     services.TaskService
	dashboard services.DashboardService
	boards    *board.Registry
}

func New(
	logger zerolog.Logger,
	siteRootURL string,
	authService services.AuthService,
	sessionService services.SessionService,
	userService services.UserService,
	projectService services.ProjectService,
	taskService services.TaskService,
	dashboardService services.DashboardService,
) Handler {
	store := &taskStore{tasks: taskService}
	return &handlerImpl{
		logger:      logger,
		siteRootURL: siteRootURL,
		auth:        authService,
		sessions:    sessionService,
		users:       userService,
		projects:    projectService,
		tasks:       taskService,
		dashboard:   dashboardService,
		boards:      board.NewRegistry(logger, store, store),
	}
}

// taskStore adapts the task service to the board's Loader and
// Persister seams.
type taskStore struct {
	tasks services.TaskService
}

func (s *taskStore) LoadTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	return s.tasks.GetTasksByProjectID(ctx, projectID)
}

func (s *taskStore) UpdateStatus(ctx context.Context, task *models.Task) error {
	_, err := s.tasks.UpdateTaskStatus(ctx, services.UpdateTaskStatusParams{
		ID:         task.ID,
		AssigneeID: task.AssigneeID,
		Status:     task.Status,
	})
	return err
}

func (s *taskStore) Delete(ctx context.Context, task *models.Task) error {
	return s.tasks.DeleteTask(ctx, services.DeleteTaskParams{
		ID:         task.ID,
		AssigneeID: task.AssigneeID,
	})
}
