package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testUserID    = "user-1"
	testSessionID = "sess-1"
	testUserAgent = "taskmaster-test"
)

// testFingerprint matches generateFingerprint for a request with the
// httptest default remote addr and testUserAgent.
const testFingerprint = `{"client_ip":"192.0.2.1","user_agent":"taskmaster-test"}`

type fakeAuthService struct {
	loginResult   *services.LoginResult
	loginErr      error
	loginCalls    []services.LoginParams
	registerCalls []services.RegisterParams
	registerErr   error
	refreshErr    error
	logoutCalls   []string
	resetCalls    []string
	resetErr      error

	// validTokens maps an access token to the session id it was
	// minted for.
	validTokens map[string]string
}

func (f *fakeAuthService) Login(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	f.loginCalls = append(f.loginCalls, params)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	return testLoginResult(), nil
}

func (f *fakeAuthService) Refresh(_ context.Context, _ services.RefreshParams) (*services.LoginResult, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return testLoginResult(), nil
}

func (f *fakeAuthService) Register(_ context.Context, params services.RegisterParams) (*services.LoginResult, error) {
	f.registerCalls = append(f.registerCalls, params)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return testLoginResult(), nil
}

func (f *fakeAuthService) Logout(_ context.Context, userID string) error {
	f.logoutCalls = append(f.logoutCalls, userID)
	return nil
}

func (f *fakeAuthService) RequestPasswordReset(_ context.Context, email string) error {
	f.resetCalls = append(f.resetCalls, email)
	return f.resetErr
}

func (f *fakeAuthService) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	if sessionID, ok := f.validTokens[token]; ok {
		return &jwt.RegisteredClaims{Subject: sessionID}, nil
	}
	return nil, errors.New("invalid token")
}

type fakeSessionService struct {
	sessions  map[string]*models.Session
	byRefresh map[string]*models.Session
	err       error
}

func (f *fakeSessionService) GetSessionByID(_ context.Context, sessionID string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionService) GetSessionByRefreshToken(_ context.Context, refreshToken string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	session, ok := f.byRefresh[refreshToken]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return session, nil
}

type fakeUserService struct {
	ensureCalls []string
	ensureErr   error
}

func (f *fakeUserService) EnsureProfile(_ context.Context, userID, _ string) error {
	f.ensureCalls = append(f.ensureCalls, userID)
	return f.ensureErr
}

func (f *fakeUserService) GetProfileByID(_ context.Context, userID string) (*models.Profile, error) {
	return &models.Profile{ID: userID, FullName: "John Doe"}, nil
}

type fakeProjectService struct {
	createCalls []services.CreateProjectParams
	createErr   error
	projects    []*models.Project
}

func (f *fakeProjectService) CreateProject(_ context.Context, params services.CreateProjectParams) (*models.Project, error) {
	f.createCalls = append(f.createCalls, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Project{
		ID:          fmt.Sprintf("project-%d", len(f.createCalls)),
		OwnerID:     params.OwnerID,
		Name:        params.Name,
		Description: params.Description,
	}, nil
}

func (f *fakeProjectService) GetProjectsByOwner(_ context.Context, ownerID string) ([]*models.Project, error) {
	var owned []*models.Project
	for _, project := range f.projects {
		if project.OwnerID == ownerID {
			owned = append(owned, project)
		}
	}
	return owned, nil
}

func (f *fakeProjectService) GetProjectByID(_ context.Context, projectID, ownerID string) (*models.Project, error) {
	for _, project := range f.projects {
		if project.ID == projectID && project.OwnerID == ownerID {
			return project, nil
		}
	}
	return nil, services.ErrProjectNotFound
}

type fakeTaskService struct {
	createCalls []services.CreateTaskParams
	createErr   error
	tasks       []*models.Task
	updateCalls []services.UpdateTaskStatusParams
	updateErr   error
	deleteCalls []services.DeleteTaskParams
	deleteErr   error
}

func (f *fakeTaskService) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	f.createCalls = append(f.createCalls, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	return &models.Task{
		ID:          fmt.Sprintf("task-%d", len(f.createCalls)),
		AssigneeID:  params.AssigneeID,
		ProjectID:   params.ProjectID,
		Title:       params.Title,
		Description: params.Description,
		Priority:    priority,
		Status:      models.StatusTodo,
		DueDate:     params.DueDate,
	}, nil
}

func (f *fakeTaskService) GetTasksByProjectID(_ context.Context, projectID string) ([]*models.Task, error) {
	var tasks []*models.Task
	for _, task := range f.tasks {
		if task.ProjectID != nil && *task.ProjectID == projectID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (f *fakeTaskService) UpdateTaskStatus(_ context.Context, params services.UpdateTaskStatusParams) (*models.Task, error) {
	f.updateCalls = append(f.updateCalls, params)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Task{ID: params.ID, AssigneeID: params.AssigneeID, Status: params.Status}, nil
}

func (f *fakeTaskService) DeleteTask(_ context.Context, params services.DeleteTaskParams) error {
	f.deleteCalls = append(f.deleteCalls, params)
	return f.deleteErr
}

type fakeDashboardService struct {
	stats    *services.DashboardStats
	recent   []*services.ProjectSummary
	upcoming []*services.TaskPreview
}

func (f *fakeDashboardService) GetStats(_ context.Context, _ string) (*services.DashboardStats, error) {
	if f.stats != nil {
		return f.stats, nil
	}
	return &services.DashboardStats{}, nil
}

func (f *fakeDashboardService) GetRecentProjects(_ context.Context, _ string, _ uint32) ([]*services.ProjectSummary, error) {
	return f.recent, nil
}

func (f *fakeDashboardService) GetUpcomingTasks(_ context.Context, _ string, _ uint32) ([]*services.TaskPreview, error) {
	return f.upcoming, nil
}

func testLoginResult() *services.LoginResult {
	return &services.LoginResult{
		UserID:       testUserID,
		SessionID:    testSessionID,
		AccessToken:  "access",
		RefreshToken: "refresh",
	}
}

func testSession() *models.Session {
	return &models.Session{
		ID:          testSessionID,
		UserID:      testUserID,
		Fingerprint: testFingerprint,
	}
}

type testEnv struct {
	auth      *fakeAuthService
	sessions  *fakeSessionService
	users     *fakeUserService
	projects  *fakeProjectService
	tasks     *fakeTaskService
	dashboard *fakeDashboardService
	router    *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		auth: &fakeAuthService{
			validTokens: map[string]string{"valid": testSessionID},
		},
		sessions: &fakeSessionService{
			sessions:  map[string]*models.Session{testSessionID: testSession()},
			byRefresh: map[string]*models.Session{},
		},
		users:     &fakeUserService{},
		projects:  &fakeProjectService{},
		tasks:     &fakeTaskService{},
		dashboard: &fakeDashboardService{},
	}

	handler := New(
		zerolog.Nop(),
		"/",
		env.auth,
		env.sessions,
		env.users,
		env.projects,
		env.tasks,
		env.dashboard,
	)

	router := gin.New()
	authRouter := router.Group("/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/forgot-password", handler.HandleForgotPassword)
	authRouter.POST("/set-session", handler.HandleSetSession)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)

	pages := router.Group("/", handler.HandleSessionGate)
	pages.GET("/", handler.HandleLanding)
	pages.GET("/dashboard", handler.HandleDashboard)
	pages.GET("/project", handler.HandleProjectList)
	pages.POST("/project", handler.HandleCreateProject)
	pages.GET("/project/:projectID", handler.HandleProjectDetail)
	pages.GET("/project/:projectID/task-tracker", handler.HandleTaskBoard)
	pages.POST("/project/:projectID/task-tracker/tasks", handler.HandleCreateTask)
	pages.POST("/project/:projectID/task-tracker/tasks/:taskID/advance", handler.HandleAdvanceTask)

	env.router = router
	return env
}

// do performs a request with the test user agent; pass authenticated
// to attach the valid access token cookie.
func (e *testEnv) do(method, path string, body *string, authenticated bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(*body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("User-Agent", testUserAgent)
	if authenticated {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "valid"})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doWithToken(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("User-Agent", testUserAgent)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
