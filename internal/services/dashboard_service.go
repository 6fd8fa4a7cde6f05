package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

type dashboardServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewDashboardService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) DashboardService {
	return &dashboardServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *dashboardServiceImpl) GetStats(ctx context.Context, userID string) (*DashboardStats, error) {
	stats := &DashboardStats{}

	const selectProjectCountQuery = `
SELECT COUNT(*)
FROM projects
WHERE owner_id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProjectCountQuery,
		userID,
	).Scan(&stats.TotalProjects)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count projects")
		return nil, err
	}

	const selectTaskCountByStatusQuery = `
SELECT COUNT(*)
FROM tasks
WHERE status = $1 AND assignee_id = $2
`
	err = s.pgPool.QueryRow(
		ctx,
		selectTaskCountByStatusQuery,
		models.StatusDone,
		userID,
	).Scan(&stats.CompletedTasks)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count completed tasks")
		return nil, err
	}

	err = s.pgPool.QueryRow(
		ctx,
		selectTaskCountByStatusQuery,
		models.StatusTodo,
		userID,
	).Scan(&stats.PendingTasks)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count pending tasks")
		return nil, err
	}

	// Total is completed plus pending; in-progress tasks are a
	// transient state the summary cards don't count.
	stats.TotalTasks = stats.CompletedTasks + stats.PendingTasks

	s.logger.Debug().
		Str("user_id", userID).
		Int64("projects", stats.TotalProjects).
		Int64("tasks", stats.TotalTasks).
		Msg("assembled dashboard stats")
	return stats, nil
}

func (s *dashboardServiceImpl) GetRecentProjects(ctx context.Context, userID string, limit uint32) ([]*ProjectSummary, error) {
	if limit == 0 {
		limit = 3
	}

	const selectRecentProjectsQuery = `
SELECT p.id,
       p.name,
       p.description,
       p.updated_at,
       pr.full_name,
       pr.avatar_url,
       COUNT(t.id) AS task_count,
       COUNT(t.id) FILTER (WHERE t.status = 'done') AS done_count
FROM projects p
JOIN profiles pr ON pr.id = p.owner_id
LEFT JOIN tasks t ON t.project_id = p.id
WHERE p.owner_id = $1
GROUP BY p.id, pr.full_name, pr.avatar_url
ORDER BY p.updated_at DESC
LIMIT $2
`
	rows, err := s.pgPool.Query(
		ctx,
		selectRecentProjectsQuery,
		userID,
		limit,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select recent projects")
		return nil, err
	}
	defer rows.Close()

	var summaries []*ProjectSummary
	for rows.Next() {
		summary := &ProjectSummary{
			Project: models.Project{
				OwnerID: userID,
				Owner:   &models.Profile{ID: userID},
			},
		}
		err = rows.Scan(
			&summary.Project.ID,
			&summary.Project.Name,
			&summary.Project.Description,
			&summary.Project.UpdatedAt,
			&summary.Project.Owner.FullName,
			&summary.Project.Owner.AvatarURL,
			&summary.TaskCount,
			&summary.DoneTaskCount,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan project summary")
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(summaries)).
		Str("user_id", userID).
		Msg("selected recent projects")

	return summaries, nil
}

func (s *dashboardServiceImpl) GetUpcomingTasks(ctx context.Context, userID string, limit uint32) ([]*TaskPreview, error) {
	if limit == 0 {
		limit = 5
	}

	const selectUpcomingTasksQuery = `
SELECT t.id,
       t.project_id,
       t.title,
       t.description,
       t.priority,
       t.status,
       t.due_date,
       p.name
FROM tasks t
LEFT JOIN projects p ON p.id = t.project_id
WHERE t.assignee_id = $1
ORDER BY t.due_date ASC NULLS LAST
LIMIT $2
`
	rows, err := s.pgPool.Query(
		ctx,
		selectUpcomingTasksQuery,
		userID,
		limit,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select upcoming tasks")
		return nil, err
	}
	defer rows.Close()

	var previews []*TaskPreview
	for rows.Next() {
		preview := &TaskPreview{
			Task: models.Task{AssigneeID: userID},
		}
		err = rows.Scan(
			&preview.Task.ID,
			&preview.Task.ProjectID,
			&preview.Task.Title,
			&preview.Task.Description,
			&preview.Task.Priority,
			&preview.Task.Status,
			&preview.Task.DueDate,
			&preview.ProjectName,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task preview")
			return nil, err
		}
		previews = append(previews, preview)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(previews)).
		Str("user_id", userID).
		Msg("selected upcoming tasks")

	return previews, nil
}
