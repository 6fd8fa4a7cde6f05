package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskmaster-app/taskmaster/internal/services"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newUnauthorizedError(services.ErrUserNotFound.Error()))
		case errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, newUnauthorizedError(services.ErrUserPasswordMismatch.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	// Accounts that predate atomic registration may have no profile
	// yet; the upsert is a no-op for everyone else.
	err = h.users.EnsureProfile(c, result.UserID, req.Email)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to ensure profile")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	now := time.Now()
	setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))

	c.JSON(http.StatusOK, gin.H{"location": dashboardPath})
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	result, err := h.refreshSession(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to refresh session")
		switch {
		case errors.Is(err, errMandatoryCookieNotFound):
			abort(c, newBadRequestError(errMandatoryCookieNotFound.Error()))
		case errors.Is(err, services.ErrSessionNotFound):
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
		case errors.Is(err, services.ErrSessionExpired):
			abort(c, newUnauthorizedError(services.ErrSessionExpired.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("session_id", result.SessionID).
		Msg("refreshed session")
	c.Status(http.StatusOK)
}

type registerRequest struct {
	FirstName       string `json:"first_name" binding:"required,max=128"`
	LastName        string `json:"last_name" binding:"required,max=128"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required,min=6,max=255"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("register request")

	// Checked before anything touches the backend.
	if req.Password != req.ConfirmPassword {
		h.logger.Error().Msg("password confirmation mismatch")
		abort(c, newBadRequestError(errPasswordConfirmation.Error()))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.auth.Register(c, services.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FirstName + " " + req.LastName,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	// No cookies here: the fresh account still goes through the login
	// form, and login replaces this session anyway.
	h.logger.Info().
		Str("user_id", result.UserID).
		Msg("registered user")
	c.JSON(http.StatusCreated, gin.H{"location": "/auth/login"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

func (h *handlerImpl) HandleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.auth.RequestPasswordReset(c, req.Email)
	if err != nil && !errors.Is(err, services.ErrUserNotFound) {
		h.logger.Error().
			Err(err).
			Msg("failed to request password reset")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	// Unknown emails get the same answer as known ones.
	c.Status(http.StatusAccepted)
}

type setSessionRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// HandleSetSession installs a token pair obtained by the client as
// the server-readable session cookies. The pair is validated against
// the sessions table: the refresh token must belong to the session
// the access token was minted for.
func (h *handlerImpl) HandleSetSession(c *gin.Context) {
	var req setSessionRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	claims, err := h.auth.ParseJWTToken(req.AccessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse access token")
		abort(c, newUnauthorizedError("invalid access token"))
		return
	}

	session, err := h.sessions.GetSessionByRefreshToken(c, req.RefreshToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to look up refresh token")
		if errors.Is(err, services.ErrSessionNotFound) {
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	if session.ID != claims.Subject {
		h.logger.Error().
			Str("session_id", session.ID).
			Msg("token pair does not belong to one session")
		abort(c, newUnauthorizedError("token pair mismatch"))
		return
	}

	now := time.Now()
	if claims.ExpiresAt != nil {
		setAccessTokenCookie(c, req.AccessToken, claims.ExpiresAt.Sub(now))
	}
	setRefreshTokenCookie(c, req.RefreshToken, session.ExpiresAt.Sub(now))

	h.logger.Info().
		Str("session_id", session.ID).
		Msg("stored session")
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.auth.Logout(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.Redirect(http.StatusFound, h.siteRootURL)
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func setAccessTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	// httpOnly must be false to allow client-side JavaScript
	// to read the cookie and send it in the Authorization header.
	const secure, httpOnly = false, false
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func setRefreshTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(refreshTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1,
		"/", "", false, false)
}
