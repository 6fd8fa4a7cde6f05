package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidTaskPriority  = errors.New("invalid task priority")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register creates the user, their profile and a fresh session
	// in a single transaction, so a failed profile insert rolls the
	// auth row back and no orphaned identity can exist.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// RequestPasswordReset mints a reset token for the account with
	// the given email. Delivery of the reset link is external.
	//
	// It returns ErrUserNotFound if no account has that email.
	RequestPasswordReset(ctx context.Context, email string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
}

type UserService interface {
	// EnsureProfile creates the profile row for the user if it is
	// missing. The insert is an upsert keyed by user id, so calling
	// it for an existing profile is a no-op.
	EnsureProfile(ctx context.Context, userID, fullName string) error

	GetProfileByID(ctx context.Context, userID string) (*models.Profile, error)
}

type ProjectService interface {
	CreateProject(ctx context.Context, params CreateProjectParams) (*models.Project, error)
	GetProjectsByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)

	// GetProjectByID returns ErrProjectNotFound if the project
	// doesn't exist or isn't owned by the given user.
	GetProjectByID(ctx context.Context, projectID, ownerID string) (*models.Project, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)
	GetTasksByProjectID(ctx context.Context, projectID string) ([]*models.Task, error)
	UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error)
	DeleteTask(ctx context.Context, params DeleteTaskParams) error
}

type DashboardService interface {
	GetStats(ctx context.Context, userID string) (*DashboardStats, error)
	GetRecentProjects(ctx context.Context, userID string, limit uint32) ([]*ProjectSummary, error)
	GetUpcomingTasks(ctx context.Context, userID string, limit uint32) ([]*TaskPreview, error)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Password    string
	FullName    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateProjectParams struct {
	OwnerID     string
	Name        string
	Description string
}

type CreateTaskParams struct {
	AssigneeID  string
	ProjectID   *string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

type UpdateTaskStatusParams struct {
	ID         string
	AssigneeID string
	Status     string
}

type DeleteTaskParams struct {
	ID         string
	AssigneeID string
}

type DashboardStats struct {
	TotalProjects  int64
	CompletedTasks int64
	PendingTasks   int64
	TotalTasks     int64
}

type ProjectSummary struct {
	Project       models.Project
	TaskCount     int64
	DoneTaskCount int64
}

type TaskPreview struct {
	Task        models.Task
	ProjectName *string
}
