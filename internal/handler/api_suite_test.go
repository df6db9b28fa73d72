package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/broker"
	"github.com/hynexus/hynexus-api/internal/cache"
	"github.com/hynexus/hynexus-api/internal/handler"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/oauth"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/router"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/internal/testutil"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key"
	testPassword  = "SecurePass123"
)

// apiSuite serves the full router over an in-memory database and miniredis.
type apiSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	auditLog  *audit.Log
	router    *gin.Engine
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())
}

func (s *apiSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
	s.testRedis.Teardown(s.T())
}

func (s *apiSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()

	auditLog, err := audit.Open(filepath.Join(s.T().TempDir(), "audit.log"))
	s.Require().NoError(err)
	s.auditLog = auditLog

	db := s.testDB.DB
	redisClient := s.testRedis.Client

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	serverRepo := repository.NewServerRepository(db)
	refreshTokens := service.NewRefreshTokenService(repository.NewRefreshTokenRepository(db), 24*time.Hour)

	authService := service.NewAuthService(userRepo, roleRepo, refreshTokens, nil, service.AuthConfig{
		JWTSecret:                 testJWTSecret,
		Environment:               "development",
		AccessTokenTTL:            15 * time.Minute,
		LinkRequiresVerifiedEmail: true,
	})
	redisCache := cache.NewRedisCache(redisClient, nil)
	redisBroker := broker.NewRedisBroker(redisClient)
	rateLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: 1000,
		Window:      time.Minute,
	})

	s.router = router.New(router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		OAuth:  handler.NewOAuthHandler(authService, oauth.NewRegistry(), oauth.NewStateStore(redisClient), ""),
		Server: handler.NewServerHandler(service.NewServerService(serverRepo, redisCache, redisBroker, s.auditLog, nil, time.Minute)),
		Theme:  handler.NewThemeHandler(service.NewThemeService(serverRepo, redisCache, time.Minute)),
		Admin:  handler.NewAdminHandler(service.NewUserService(userRepo, roleRepo, refreshTokens, s.auditLog, nil), rateLimiter, s.auditLog),
		Events: handler.NewEventsHandler(redisBroker, nil),
	}, router.Options{
		JWTSecret:   testJWTSecret,
		Users:       authService,
		RateLimiter: rateLimiter,
	})
}

func (s *apiSuite) TearDownTest() {
	s.auditLog.Close()
}

// request sends body as JSON when it is not nil. token, when set, is sent as a bearer token.
func (s *apiSuite) request(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequestWithContext(context.Background(), method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder, dest any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

// createUser inserts an account with testPassword and logs it in.
func (s *apiSuite) createUser(f testutil.UserFixture) (*models.User, string) {
	f.Password = testPassword
	user := testutil.CreateTestUser(s.T(), s.testDB.DB, f)
	return user, s.login(f.Email, testPassword)
}

func (s *apiSuite) login(email, password string) string {
	w := s.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	s.decode(w, &resp)
	return resp.AccessToken
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

type errorBody struct {
	Code    string            `json:"code"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}
