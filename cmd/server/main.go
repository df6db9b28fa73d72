package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/broker"
	"github.com/hynexus/hynexus-api/internal/cache"
	"github.com/hynexus/hynexus-api/internal/config"
	"github.com/hynexus/hynexus-api/internal/database"
	"github.com/hynexus/hynexus-api/internal/handler"
	"github.com/hynexus/hynexus-api/internal/metrics"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/oauth"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/router"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.MigrateUp(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	redisCache := cache.NewRedisCache(redisClient, m)

	auditLog, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open audit log", zap.Error(err))
	}
	defer auditLog.Close()

	// Redis feeds the admin events stream; RabbitMQ is an optional durable copy.
	redisBroker := broker.NewRedisBroker(redisClient)
	publishers := broker.Fanout{redisBroker}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := broker.NewAMQPPublisher(cfg.AMQPURL, broker.DefaultModerationQueue)
		if err != nil {
			logger.Log.Fatal("Failed to connect rabbitmq", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	serverRepo := repository.NewServerRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	refreshTokens := service.NewRefreshTokenService(refreshTokenRepo, cfg.RefreshTokenExpiry)
	authService := service.NewAuthService(userRepo, roleRepo, refreshTokens, m, service.AuthConfig{
		JWTSecret:                 cfg.JWTSecret,
		Environment:               cfg.Environment,
		AccessTokenTTL:            cfg.JWTExpiry,
		LinkRequiresVerifiedEmail: cfg.OAuthLinkRequireVerified,
	})
	userService := service.NewUserService(userRepo, roleRepo, refreshTokens, auditLog, m)
	serverService := service.NewServerService(serverRepo, redisCache, publishers, auditLog, m, cfg.CacheTTL)
	themeService := service.NewThemeService(serverRepo, redisCache, cfg.ThemeCacheTTL)

	rateLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	providers := oauth.RegistryFromConfig(ctx, cfg)
	logger.Log.Info("OAuth providers enabled", zap.Strings("providers", providers.Names()))

	engine := router.New(router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		OAuth:  handler.NewOAuthHandler(authService, providers, oauth.NewStateStore(redisClient), cfg.OAuthSuccessRedirectURL),
		Server: handler.NewServerHandler(serverService),
		Theme:  handler.NewThemeHandler(themeService),
		Admin:  handler.NewAdminHandler(userService, rateLimiter, auditLog),
		Events: handler.NewEventsHandler(redisBroker, cfg.CORSAllowedOrigins),
	}, router.Options{
		JWTSecret:      cfg.JWTSecret,
		IsProduction:   cfg.IsProduction(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Users:          authService,
		RateLimiter:    rateLimiter,
		Metrics:        m,
		Health: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(pingCtx); err != nil {
				return errors.New("database unreachable")
			}
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				return errors.New("redis unreachable")
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
