package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

func TestLoginPersistsSessionBeforeNavigation(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"john@example.com","password":"secret123"}`
	w := env.do(http.MethodPost, "/auth/login", &body, false)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.auth.loginCalls, 1)
	assert.Equal(t, "john@example.com", env.auth.loginCalls[0].Email)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/dashboard", resp["location"])

	cookies := w.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, cookie := range cookies {
		names[cookie.Name] = true
	}
	assert.True(t, names[accessTokenCookie])
	assert.True(t, names[refreshTokenCookie])
}

func TestLoginEnsuresProfile(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"john@example.com","password":"secret123"}`
	w := env.do(http.MethodPost, "/auth/login", &body, false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{testUserID}, env.users.ensureCalls)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.auth.loginErr = services.ErrUserPasswordMismatch

	body := `{"email":"john@example.com","password":"wrongpass"}`
	w := env.do(http.MethodPost, "/auth/login", &body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrUserPasswordMismatch.Error())
}

func TestLoginRejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"not-an-email","password":"secret123"}`
	w := env.do(http.MethodPost, "/auth/login", &body, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.auth.loginCalls)
}

func TestRegisterRejectsPasswordMismatchBeforeBackend(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"first_name": "John",
		"last_name": "Doe",
		"email": "john@example.com",
		"password": "secret123",
		"confirm_password": "secret124"
	}`
	w := env.do(http.MethodPost, "/auth/register", &body, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errPasswordConfirmation.Error())
	assert.Empty(t, env.auth.registerCalls)
}

func TestRegisterCreatesUserWithFullName(t *testing.T) {
	env := newTestEnv(t)

	body := `{
		"first_name": "John",
		"last_name": "Doe",
		"email": "john@example.com",
		"password": "secret123",
		"confirm_password": "secret123"
	}`
	w := env.do(http.MethodPost, "/auth/register", &body, false)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, env.auth.registerCalls, 1)
	assert.Equal(t, "John Doe", env.auth.registerCalls[0].FullName)
	assert.Equal(t, "john@example.com", env.auth.registerCalls[0].Email)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/auth/login", resp["location"])

	// Registration routes through the login form without a live
	// session, so no token cookies are installed.
	for _, cookie := range w.Result().Cookies() {
		assert.NotEqual(t, accessTokenCookie, cookie.Name)
		assert.NotEqual(t, refreshTokenCookie, cookie.Name)
	}
}

func TestRegisterConflictOnExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	env.auth.registerErr = services.ErrUserAlreadyExists

	body := `{
		"first_name": "John",
		"last_name": "Doe",
		"email": "john@example.com",
		"password": "secret123",
		"confirm_password": "secret123"
	}`
	w := env.do(http.MethodPost, "/auth/register", &body, false)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestForgotPasswordAlwaysAccepted(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"john@example.com"}`
	w := env.do(http.MethodPost, "/auth/forgot-password", &body, false)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"john@example.com"}, env.auth.resetCalls)

	// Unknown emails are indistinguishable from known ones.
	env.auth.resetErr = services.ErrUserNotFound
	body = `{"email":"nobody@example.com"}`
	w = env.do(http.MethodPost, "/auth/forgot-password", &body, false)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSetSessionInstallsValidPair(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.byRefresh["refresh"] = testSession()

	body := `{"access_token":"valid","refresh_token":"refresh"}`
	w := env.do(http.MethodPost, "/auth/set-session", &body, false)

	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	values := make(map[string]string, len(cookies))
	for _, cookie := range cookies {
		values[cookie.Name] = cookie.Value
	}
	assert.Equal(t, "refresh", values[refreshTokenCookie])
}

func TestSetSessionRejectsMismatchedPair(t *testing.T) {
	env := newTestEnv(t)
	other := &models.Session{ID: "sess-2", UserID: "user-2", Fingerprint: testFingerprint}
	env.sessions.byRefresh["stolen"] = other

	body := `{"access_token":"valid","refresh_token":"stolen"}`
	w := env.do(http.MethodPost, "/auth/set-session", &body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetSessionRejectsUnknownRefreshToken(t *testing.T) {
	env := newTestEnv(t)

	body := `{"access_token":"valid","refresh_token":"unknown"}`
	w := env.do(http.MethodPost, "/auth/set-session", &body, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/logout", nil, true)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, []string{testUserID}, env.auth.logoutCalls)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == accessTokenCookie || cookie.Name == refreshTokenCookie {
			assert.Empty(t, cookie.Value)
			assert.Negative(t, cookie.MaxAge)
		}
	}
}
