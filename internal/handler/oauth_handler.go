package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/oauth"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const oauthExchangeTimeout = 30 * time.Second

// StateStore issues and consumes single-use OAuth states.
type StateStore interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, state, provider string) error
}

type OAuthHandler struct {
	authService *service.AuthService
	providers   *oauth.Registry
	states      StateStore
	successURL  string
}

// NewOAuthHandler wires the flow. With successURL set the callback redirects
// there with the tokens in the fragment; otherwise it answers JSON.
func NewOAuthHandler(authService *service.AuthService, providers *oauth.Registry, states StateStore, successURL string) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		providers:   providers,
		states:      states,
		successURL:  successURL,
	}
}

// Start returns the provider consent URL.
// GET /api/v1/auth/oauth/:provider
func (h *OAuthHandler) Start(c *gin.Context) {
	name := c.Param("provider")
	p, ok := h.providers.Get(name)
	if !ok {
		respondError(c, apierror.NotFound("Unsupported OAuth provider: %s", name))
		return
	}

	state, err := h.states.Issue(c.Request.Context(), name)
	if err != nil {
		logger.Log.Error("Failed to store OAuth state", zap.String("provider", name), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OAuthURLResponse{URL: p.GetConsentURL(state)})
}

// Callback finishes the flow and issues a token pair.
// GET /api/v1/auth/oauth/:provider/callback
func (h *OAuthHandler) Callback(c *gin.Context) {
	name := c.Param("provider")
	p, ok := h.providers.Get(name)
	if !ok {
		h.fail(c, apierror.NotFound("Unsupported OAuth provider: %s", name))
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		h.fail(c, apierror.Unauthorized("OAuth provider returned an error: %s", providerErr))
		return
	}

	if err := h.states.Consume(c.Request.Context(), c.Query("state"), name); err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			h.fail(c, apierror.BadRequest("Invalid or expired OAuth state"))
			return
		}
		h.fail(c, err)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.fail(c, apierror.BadRequest("Missing authorization code"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), oauthExchangeTimeout)
	defer cancel()

	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		logger.Log.Warn("OAuth code exchange failed", zap.String("provider", name), zap.Error(err))
		h.fail(c, apierror.Unauthorized("Failed to authenticate with %s", name))
		return
	}

	result, err := h.authService.OAuthLogin(ctx, service.OAuthProfile{
		Provider:      models.AuthProvider(info.Provider),
		ProviderID:    info.ID,
		Email:         info.Email,
		Name:          info.Name,
		AvatarURL:     info.AvatarURL,
		EmailVerified: info.EmailVerified,
		Data:          info.Raw,
	}, clientMeta(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	logger.Log.Info("OAuth login succeeded",
		zap.String("provider", name),
		zap.String("user_id", result.User.ID.String()),
	)

	resp := authResponse(h.authService, result)
	if h.successURL == "" {
		c.JSON(http.StatusOK, resp)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", resp.AccessToken)
	fragment.Set("refresh_token", resp.RefreshToken)
	fragment.Set("expires_in", strconv.Itoa(resp.ExpiresIn))
	c.Redirect(http.StatusFound, h.successURL+"#"+fragment.Encode())
}

func (h *OAuthHandler) fail(c *gin.Context, err error) {
	if h.successURL == "" {
		respondError(c, err)
		return
	}

	message := "Authentication failed"
	if apiErr, ok := apierror.As(err); ok {
		message = apiErr.Message
	} else {
		logger.Log.Error("OAuth callback failed", zap.Error(err))
	}

	fragment := url.Values{}
	fragment.Set("error", message)
	c.Redirect(http.StatusFound, h.successURL+"#"+fragment.Encode())
}
