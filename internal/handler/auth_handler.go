package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const refreshTokenCookie = "refresh_token"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a password account.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	result, err := h.authService.Register(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondWithTokens(c, http.StatusCreated, result)
}

// Login exchanges email and password for a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondWithTokens(c, http.StatusOK, result)
}

// Refresh mints a new access token. The refresh token comes from the body or the cookie.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw := refreshTokenFromRequest(c)
	if raw == "" {
		respondError(c, apierror.Unauthorized("Refresh token required"))
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.clearRefreshCookie(c)
		respondError(c, err)
		return
	}

	h.respondWithTokens(c, http.StatusOK, result)
}

// Logout revokes the refresh token. It always succeeds.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := refreshTokenFromRequest(c)

	if err := h.authService.Logout(c.Request.Context(), raw); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile with roles and permissions read from the database.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	if principal == nil {
		respondError(c, apierror.Unauthorized("Authentication required"))
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProfileResponse(user))
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, result *service.AuthResult) {
	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(status, authResponse(h.authService, result))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		refreshTokenCookie,
		token,
		int(h.authService.RefreshTokenTTL().Seconds()),
		"/api/v1/auth",
		"",
		h.authService.IsProduction(), // secure (HTTPS-only in production)
		true,                         // httpOnly
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshTokenCookie, "", -1, "/api/v1/auth", "", h.authService.IsProduction(), true)
}

func authResponse(authService *service.AuthService, result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    int(authService.AccessTokenTTL().Seconds()),
		User:         dto.NewAuthUser(result.User),
	}
}

// refreshTokenFromRequest prefers the JSON body over the cookie. An empty or
// missing body is not an error.
func refreshTokenFromRequest(c *gin.Context) string {
	var req dto.RefreshRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		return ""
	}
	return cookie
}

func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}
