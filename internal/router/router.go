// Package router assembles the HTTP surface.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/handler"
	"github.com/hynexus/hynexus-api/internal/metrics"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/rbac"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	OAuth  *handler.OAuthHandler
	Server *handler.ServerHandler
	Theme  *handler.ThemeHandler
	Admin  *handler.AdminHandler
	Events *handler.EventsHandler
}

type Options struct {
	JWTSecret      string
	IsProduction   bool
	AllowedOrigins []string

	Users       middleware.UserValidator
	RateLimiter *middleware.RateLimiter
	// Metrics is optional; /metrics is only mounted when set.
	Metrics *metrics.Metrics
	// Health reports dependency status for /health.
	Health func() error
}

// New builds the engine with every route mounted under /api/v1.
func New(h Handlers, opts Options) *gin.Engine {
	dto.RegisterValidators()

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(middleware.SecurityHeaders(opts.IsProduction))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	authenticated := middleware.AuthMiddleware(opts.JWTSecret, opts.Users)
	var limited gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RateLimiter != nil {
		limited = opts.RateLimiter.Middleware()
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", limited, h.Auth.Register)
		auth.POST("/login", limited, h.Auth.Login)
		auth.POST("/refresh", limited, h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authenticated, middleware.Authorize(rbac.Policy{}), h.Auth.Me)

		if h.OAuth != nil {
			auth.GET("/oauth/:provider", limited, h.OAuth.Start)
			auth.GET("/oauth/:provider/callback", limited, h.OAuth.Callback)
		}
	}

	servers := api.Group("/servers", authenticated)
	{
		servers.GET("", middleware.Authorize(rbac.Policy{}), h.Server.List)
		servers.GET("/slug/:slug", middleware.Authorize(rbac.Policy{}), h.Server.GetBySlug)
		servers.GET("/:id", middleware.Authorize(rbac.Policy{}), h.Server.Get)
		servers.POST("", middleware.Authorize(rbac.Policy{
			Permissions: []string{"servers:create"},
		}), h.Server.Create)
		servers.PUT("/:id", middleware.Authorize(rbac.Policy{
			Permissions: []string{"servers:update"},
		}), h.Server.Update)
		servers.DELETE("/:id", middleware.Authorize(rbac.Policy{
			Roles:       []string{models.RoleAdmin},
			Permissions: []string{"servers:delete"},
		}), h.Server.Delete)
		servers.PATCH("/:id/approve", middleware.Authorize(rbac.Policy{PlatformAdmin: true}), h.Server.Approve)
		servers.PATCH("/:id/reject", middleware.Authorize(rbac.Policy{PlatformAdmin: true}), h.Server.Reject)
	}

	api.GET("/themes/server/:slug", h.Theme.GetServerTheme)

	if h.Admin != nil {
		admin := api.Group("/admin", authenticated, middleware.Authorize(rbac.Policy{PlatformAdmin: true}))
		{
			admin.GET("/users", h.Admin.ListUsers)
			admin.POST("/users/:id/ban", h.Admin.BanUser)
			admin.POST("/users/:id/unban", h.Admin.UnbanUser)
			admin.POST("/users/:id/roles", h.Admin.AssignRole)
			admin.DELETE("/users/:id/roles/:role", h.Admin.RevokeRole)
			admin.GET("/roles", h.Admin.ListRoles)
			admin.GET("/ip-bans", h.Admin.ListIPBans)
			admin.POST("/ip-bans", h.Admin.BanIP)
			admin.DELETE("/ip-bans/:ip", h.Admin.UnbanIP)
			admin.GET("/audit", h.Admin.Audit)
		}
	}

	if h.Events != nil {
		// WebSocket handshakes carry the token in the query
		streamAuth := middleware.AuthMiddleware(opts.JWTSecret, opts.Users, middleware.AllowQueryToken())
		api.GET("/admin/events", streamAuth, middleware.Authorize(rbac.Policy{PlatformAdmin: true}), h.Events.Stream)
	}

	return r
}
