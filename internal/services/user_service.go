package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

type userServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewUserService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) UserService {
	return &userServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *userServiceImpl) EnsureProfile(ctx context.Context, userID, fullName string) error {
	now := time.Now()

	// Accounts registered before profiles became part of the
	// registration transaction may still lack a row; the upsert
	// is keyed by user id so repeat calls change nothing.
	const upsertProfileQuery = `
INSERT INTO profiles (id,
                      full_name,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`
	tag, err := s.pgPool.Exec(
		ctx,
		upsertProfileQuery,
		userID,
		fullName,
		now,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to upsert profile")
		return err
	}

	if tag.RowsAffected() > 0 {
		s.logger.Info().
			Str("user_id", userID).
			Msg("created missing profile")
	}
	return nil
}

func (s *userServiceImpl) GetProfileByID(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{
		ID: userID,
	}

	const selectProfileByIDQuery = `
SELECT full_name,
       avatar_url,
       created_at,
       updated_at
FROM profiles
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProfileByIDQuery,
		profile.ID,
	).Scan(
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", profile.ID).
				Msg("profile not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", profile.ID).
			Msg("failed to select profile by id")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", profile.ID).
		Msg("selected profile by id")

	return profile, nil
}
