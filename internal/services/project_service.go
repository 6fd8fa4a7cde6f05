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

type projectServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewProjectService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) ProjectService {
	return &projectServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *projectServiceImpl) CreateProject(ctx context.Context, params CreateProjectParams) (*models.Project, error) {
	now := time.Now()
	project := &models.Project{
		OwnerID:     params.OwnerID,
		Name:        params.Name,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	projectUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate project uuid")
		return nil, err
	}
	project.ID = projectUUID.String()

	const insertProjectQuery = `
INSERT INTO projects (id,
                      owner_id,
                      name,
                      description,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertProjectQuery,
		project.ID,
		project.OwnerID,
		project.Name,
		project.Description,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert project")
		return nil, err
	}
	s.logger.Debug().
		Str("project_id", project.ID).
		Msg("inserted project")

	s.logger.Info().
		Str("project_id", project.ID).
		Str("owner_id", project.OwnerID).
		Msg("created project")
	return project, nil
}

func (s *projectServiceImpl) GetProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	const selectProjectsByOwnerQuery = `
SELECT p.id,
       p.name,
       p.description,
       p.created_at,
       p.updated_at,
       pr.full_name,
       pr.avatar_url
FROM projects p
JOIN profiles pr ON pr.id = p.owner_id
WHERE p.owner_id = $1
ORDER BY p.created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectProjectsByOwnerQuery,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select projects by owner")
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{
			OwnerID: ownerID,
			Owner:   &models.Profile{ID: ownerID},
		}
		err = rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.CreatedAt,
			&project.UpdatedAt,
			&project.Owner.FullName,
			&project.Owner.AvatarURL,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan project")
			return nil, err
		}
		projects = append(projects, project)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(projects)).
		Str("owner_id", ownerID).
		Msg("selected projects by owner")

	s.logger.Info().
		Int("count", len(projects)).
		Str("owner_id", ownerID).
		Msg("projects found")
	return projects, nil
}

func (s *projectServiceImpl) GetProjectByID(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	project := &models.Project{
		ID:      projectID,
		OwnerID: ownerID,
	}

	const selectProjectByIDQuery = `
SELECT name,
       description,
       created_at,
       updated_at
FROM projects
WHERE id = $1 AND owner_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProjectByIDQuery,
		project.ID,
		project.OwnerID,
	).Scan(
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("project_id", project.ID).
				Str("owner_id", project.OwnerID).
				Msg("project not found")
			return nil, ErrProjectNotFound
		}

		s.logger.Error().
			Err(err).
			Str("project_id", project.ID).
			Msg("failed to select project by id")
		return nil, err
	}
	s.logger.Debug().
		Str("project_id", project.ID).
		Msg("selected project by id")

	return project, nil
}
