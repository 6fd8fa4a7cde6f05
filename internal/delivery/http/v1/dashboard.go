package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskmaster-app/taskmaster/internal/services"
)

type landingFeature struct {
	Title     string `json:"title"`
	Paragraph string `json:"paragraph"`
}

var landingFeatures = []landingFeature{
	{
		Title:     "Set Task Priorities",
		Paragraph: "Easily prioritize tasks with our intuitive priority system. Mark tasks as high, medium, or low priority to stay focused on what matters most.",
	},
	{
		Title:     "Task Tracker",
		Paragraph: "Monitor task progress in real-time. Track completion rates, time spent, and milestone achievements with detailed insights.",
	},
	{
		Title:     "Notification & Reminder",
		Paragraph: "Never miss a deadline with smart notifications and customizable reminders for tasks and important updates.",
	},
	{
		Title:     "Custom Roles & Permissions",
		Paragraph: "Define custom roles and set granular permissions to ensure the right people have access to the right features.",
	},
}

// HandleLanding serves the public landing payload. The session gate
// has already redirected authenticated callers to the dashboard.
func (h *handlerImpl) HandleLanding(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": landingFeatures})
}

type dashboardStatsResponse struct {
	TotalProjects  int64 `json:"total_projects"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	TotalTasks     int64 `json:"total_tasks"`
}

type recentProjectResponse struct {
	getProjectResponse
	TaskCount     int64 `json:"task_count"`
	DoneTaskCount int64 `json:"done_task_count"`
}

type upcomingTaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	ProjectName *string    `json:"project_name,omitempty"`
}

type dashboardResponse struct {
	Stats          dashboardStatsResponse  `json:"stats"`
	RecentProjects []recentProjectResponse `json:"recent_projects"`
	UpcomingTasks  []upcomingTaskResponse  `json:"upcoming_tasks"`
}

func (h *handlerImpl) HandleDashboard(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	stats, err := h.dashboard.GetStats(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get dashboard stats")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	recent, err := h.dashboard.GetRecentProjects(c, userID, 3)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get recent projects")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	upcoming, err := h.dashboard.GetUpcomingTasks(c, userID, 5)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get upcoming tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := dashboardResponse{
		Stats: dashboardStatsResponse{
			TotalProjects:  stats.TotalProjects,
			CompletedTasks: stats.CompletedTasks,
			PendingTasks:   stats.PendingTasks,
			TotalTasks:     stats.TotalTasks,
		},
		RecentProjects: make([]recentProjectResponse, len(recent)),
		UpcomingTasks:  make([]upcomingTaskResponse, len(upcoming)),
	}

	for i, summary := range recent {
		response.RecentProjects[i] = recentProjectResponse{
			getProjectResponse: newGetProjectResponse(&summary.Project),
			TaskCount:          summary.TaskCount,
			DoneTaskCount:      summary.DoneTaskCount,
		}
	}
	for i, preview := range upcoming {
		response.UpcomingTasks[i] = newUpcomingTaskResponse(preview)
	}

	c.JSON(http.StatusOK, response)
}

func newUpcomingTaskResponse(preview *services.TaskPreview) upcomingTaskResponse {
	return upcomingTaskResponse{
		ID:          preview.Task.ID,
		Title:       preview.Task.Title,
		Description: preview.Task.Description,
		Priority:    preview.Task.Priority,
		DueDate:     preview.Task.DueDate,
		ProjectID:   preview.Task.ProjectID,
		ProjectName: preview.ProjectName,
	}
}
