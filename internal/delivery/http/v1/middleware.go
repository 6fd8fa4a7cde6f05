package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

const (
	landingPath   = "/"
	dashboardPath = "/dashboard"
)

// publicPathPrefixes is the fixed allow-list of paths that never
// require a session: the landing page and the auth forms.
var publicPathPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/forgot-password",
}

func isPublicPath(path string) bool {
	if path == landingPath {
		return true
	}
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// HandleSessionGate guards the page routes. Unauthenticated requests
// outside the public allow-list are sent back to the landing page;
// authenticated requests hitting the landing page are sent to the
// dashboard. Any failure during session resolution counts as "no
// session" (fail closed).
func (h *handlerImpl) HandleSessionGate(c *gin.Context) {
	path := c.Request.URL.Path

	session, err := h.resolveSession(c)
	if err != nil {
		if !isPublicPath(path) {
			h.logger.Warn().
				Str("path", path).
				Msg("unauthenticated request to protected path")
			c.Redirect(http.StatusFound, landingPath)
			c.Abort()
			return
		}
		c.Next()
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)

	if path == landingPath {
		c.Redirect(http.StatusFound, dashboardPath)
		c.Abort()
		return
	}
	c.Next()
}

// HandleAuthMiddleware is the API flavor of the gate: same session
// resolution, but unauthenticated requests get 401 instead of a
// redirect.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	session, err := h.resolveSession(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to resolve session")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}

// resolveSession turns the request cookies into a validated session:
// parse the access token, transparently rotate it through the refresh
// flow when expired, then look the session up and match the caller's
// fingerprint against the stored one.
func (h *handlerImpl) resolveSession(c *gin.Context) (*models.Session, error) {
	accessToken, err := c.Cookie(accessTokenCookie)
	if err != nil {
		return nil, errMandatoryCookieNotFound
	}

	claims, err := h.auth.ParseJWTToken(accessToken)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}

		result, err := h.refreshSession(c)
		if err != nil {
			return nil, err
		}
		claims = &jwt.RegisteredClaims{Subject: result.SessionID}
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		return nil, err
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		return nil, err
	}
	if fingerprint != session.Fingerprint {
		h.logger.Error().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		return nil, errFingerprintMismatch
	}

	return session, nil
}

// refreshSession rotates the token pair using the refresh cookie and
// installs the fresh cookies on the response.
func (h *handlerImpl) refreshSession(c *gin.Context) (*services.LoginResult, error) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		return nil, errMandatoryCookieNotFound
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		return nil, err
	}

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: refreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))

	return result, nil
}
