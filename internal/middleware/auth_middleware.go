package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/rbac"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const principalKey = "principal"

// UserValidator returns the account when it may still act, nil otherwise.
type UserValidator interface {
	ValidateUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type authOptions struct {
	queryToken bool
}

// AuthOption tunes AuthMiddleware.
type AuthOption func(*authOptions)

// AllowQueryToken also accepts the token as ?access_token=. Browsers cannot
// set headers on a WebSocket handshake, so only the event stream uses it; on
// other routes the token would leak into access logs and Referer headers.
func AllowQueryToken() AuthOption {
	return func(o *authOptions) { o.queryToken = true }
}

// AuthMiddleware authenticates the bearer token and attaches an rbac.Principal.
// Roles and permissions come from the token; the platform-admin flag is read
// from the account.
func AuthMiddleware(jwtSecret string, users UserValidator, opts ...AuthOption) gin.HandlerFunc {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		// 1. Extract token from "Bearer <token>", or the query where allowed
		tokenString, ok := bearerToken(c, o.queryToken)
		if !ok {
			abortWithError(c, apierror.Unauthorized("Authorization header required"))
			return
		}

		// 2. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			abortWithError(c, apierror.Unauthorized("Invalid or expired token"))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortWithError(c, apierror.Unauthorized("Invalid or expired token"))
			return
		}

		// 3. The account must still be active and not banned
		user, err := users.ValidateUser(c.Request.Context(), userID)
		if err != nil {
			logger.Log.Error("Failed to load authenticated user", zap.String("user_id", userID.String()), zap.Error(err))
			abortWithError(c, apierror.Unauthorized("Invalid or expired token"))
			return
		}
		if user == nil {
			abortWithError(c, apierror.Unauthorized("User no longer exists or is disabled"))
			return
		}

		// 4. Attach the principal for guards and handlers
		c.Set(principalKey, rbac.NewPrincipal(userID, claims.Email, user.IsAdmin, claims.RoleNames(), claims.Permissions()))
		c.Next()
	}
}

// Authorize runs the policy's guards in order and aborts with 403 on the first failure.
func Authorize(policy rbac.Policy) gin.HandlerFunc {
	guards := policy.Guards()
	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if err := rbac.Evaluate(principal, guards); err != nil {
			fields := []zap.Field{zap.String("path", c.FullPath()), zap.Error(err)}
			if principal != nil {
				fields = append(fields, zap.String("user_id", principal.UserID.String()))
			}
			logger.Log.Info("Access denied", fields...)
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller attached by AuthMiddleware, or nil.
func CurrentPrincipal(c *gin.Context) *rbac.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*rbac.Principal)
	return p
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c *gin.Context, p *rbac.Principal) {
	c.Set(principalKey, p)
}

func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if !allowQuery {
			return "", false
		}
		token := c.Query("access_token")
		return token, token != ""
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

func abortWithError(c *gin.Context, err error) {
	apiErr, ok := apierror.As(err)
	if !ok {
		apiErr = apierror.Forbidden("Access denied")
	}
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
