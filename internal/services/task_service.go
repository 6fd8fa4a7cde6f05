package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func isValidPriority(priority string) bool {
	return priority == models.PriorityLow ||
		priority == models.PriorityMedium ||
		priority == models.PriorityHigh
}

func isValidStatus(status string) bool {
	return status == models.StatusTodo ||
		status == models.StatusInProgress ||
		status == models.StatusDone
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if params.Priority == "" {
		params.Priority = models.PriorityMedium
	}
	if !isValidPriority(params.Priority) {
		return nil, ErrInvalidTaskPriority
	}

	now := time.Now()
	task := &models.Task{
		AssigneeID:  params.AssigneeID,
		ProjectID:   params.ProjectID,
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      models.StatusTodo,
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   assignee_id,
                   project_id,
                   title,
                   description,
                   priority,
                   status,
                   due_date,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.AssigneeID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("assignee_id", task.AssigneeID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasksByProjectID(ctx context.Context, projectID string) ([]*models.Task, error) {
	const selectTasksByProjectIDQuery = `
SELECT id,
       assignee_id,
       title,
       description,
       priority,
       status,
       due_date,
       created_at,
       updated_at
FROM tasks
WHERE project_id = $1
ORDER BY created_at ASC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByProjectIDQuery,
		projectID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by project id")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{ProjectID: &projectID}
		err = rows.Scan(
			&task.ID,
			&task.AssigneeID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.Status,
			&task.DueDate,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("project_id", projectID).
		Msg("selected tasks by project id")

	return tasks, nil
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error) {
	if !isValidStatus(params.Status) {
		return nil, ErrInvalidTaskStatus
	}

	task := &models.Task{
		ID:         params.ID,
		AssigneeID: params.AssigneeID,
		Status:     params.Status,
		UpdatedAt:  time.Now(),
	}

	const updateTaskStatusQuery = `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE id = $3 AND assignee_id = $4
RETURNING project_id, title, description, priority, due_date, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTaskStatusQuery,
		task.Status,
		task.UpdatedAt,
		task.ID,
		task.AssigneeID,
	).Scan(
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.DueDate,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Str("assignee_id", task.AssigneeID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Str("status", task.Status).
		Msg("updated task status")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("assignee_id", task.AssigneeID).
		Msg("updated task status")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND assignee_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		params.ID,
		params.AssigneeID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", params.ID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", params.ID).
			Str("assignee_id", params.AssigneeID).
			Msg("task not found")
		return ErrTaskNotFound
	}
	s.logger.Debug().
		Str("task_id", params.ID).
		Msg("deleted task")

	s.logger.Info().
		Str("task_id", params.ID).
		Str("assignee_id", params.AssigneeID).
		Msg("deleted task")
	return nil
}
