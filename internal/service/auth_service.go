package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/metrics"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// maxUsernameAttempts bounds the suffix search in generateUniqueUsername.
const maxUsernameAttempts = 10000

type AuthConfig struct {
	JWTSecret   string
	Environment string

	// AccessTokenTTL bounds how long a role/permission snapshot stays in use.
	// Role changes reach a client on its next refresh or login.
	AccessTokenTTL time.Duration

	// LinkRequiresVerifiedEmail refuses to attach an OAuth identity to an
	// existing account whose email has not been verified.
	LinkRequiresVerifiedEmail bool
}

// AuthResult is a freshly issued token pair.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// OAuthProfile is the identity returned by an OAuth provider.
type OAuthProfile struct {
	Provider      models.AuthProvider
	ProviderID    string
	Email         string
	Name          string
	AvatarURL     string
	EmailVerified bool
	Data          map[string]any
}

type AuthService struct {
	users         *repository.UserRepository
	roles         *repository.RoleRepository
	refreshTokens *RefreshTokenService
	metrics       *metrics.Metrics
	cfg           AuthConfig
}

func NewAuthService(
	users *repository.UserRepository,
	roles *repository.RoleRepository,
	refreshTokens *RefreshTokenService,
	m *metrics.Metrics,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		users:         users,
		roles:         roles,
		refreshTokens: refreshTokens,
		metrics:       m,
		cfg:           cfg,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.cfg.Environment == "production"
}

func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.refreshTokens.TTL()
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, meta ClientMeta) (*AuthResult, error) {
	start := time.Now()
	email := normalizeEmail(req.Email)

	logger.Log.Debug("Processing user registration",
		zap.String("email", email),
		zap.String("username", req.Username),
	)

	// 1. Validate input
	if err := validateRegisterInput(email, req); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check email and username uniqueness
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to check email existence", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", email))
		s.metrics.AuthEvent("register", "conflict")
		return nil, apierror.Conflict("User with this email already exists")
	}

	if req.Username != "" {
		taken, err := s.users.UsernameExists(ctx, req.Username)
		if err != nil {
			logger.Log.Error("Failed to check username existence", zap.String("username", req.Username), zap.Error(err))
			return nil, err
		}
		if taken {
			logger.Log.Warn("Username already exists", zap.String("username", req.Username))
			s.metrics.AuthEvent("register", "conflict")
			return nil, apierror.Conflict("Username is already taken")
		}
	}

	// 3. Hash password
	hashStart := time.Now()
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user with the default role
	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: &hash,
		AuthProvider: models.AuthProviderPassword,
		IsActive:     true,
	}
	if req.Username != "" {
		username := req.Username
		user.Username = &username
	}
	if err := s.attachDefaultRole(ctx, user); err != nil {
		return nil, err
	}
	now := time.Now()
	user.LastLogin = &now

	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if repository.IsDuplicateKey(err) {
			logger.Log.Warn("Registration hit unique constraint", zap.String("email", email))
			return nil, apierror.Conflict("User with this email or username already exists")
		}
		logger.Log.Error("Failed to create user in database", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	// 5. Issue tokens
	result, err := s.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("register", "success")
	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return result, nil
}

// Login verifies email and password. Unknown accounts, OAuth-only accounts and
// wrong passwords all produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ClientMeta) (*AuthResult, error) {
	start := time.Now()
	email = normalizeEmail(email)

	logger.Log.Debug("Processing user login", zap.String("email", email))

	// 1. Get user by email
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		utils.BurnPasswordCheck(password)
		logger.Log.Warn("Login failed: no password account", zap.String("email", email))
		s.metrics.AuthEvent("login", "failure")
		return nil, errInvalidCredentials()
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password", zap.String("user_id", user.ID.String()))
		s.metrics.AuthEvent("login", "failure")
		return nil, errInvalidCredentials()
	}

	// 3. Account status, only revealed to someone who knows the password
	if err := checkAccountStatus(user); err != nil {
		logger.Log.Warn("Login refused", zap.String("user_id", user.ID.String()), zap.Error(err))
		s.metrics.AuthEvent("login", "refused")
		return nil, err
	}

	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	// 4. Issue tokens
	result, err := s.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("login", "success")
	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return result, nil
}

// FindOrCreateOAuthUser resolves a provider identity to an account:
// an exact provider match first, then an email match that links the identity,
// then a new password-less account.
func (s *AuthService) FindOrCreateOAuthUser(ctx context.Context, profile OAuthProfile) (*models.User, error) {
	email := normalizeEmail(profile.Email)
	if profile.ProviderID == "" || email == "" {
		return nil, apierror.BadRequest("OAuth profile is missing an id or email")
	}

	// 1. Known identity: refresh the cached profile
	user, err := s.users.FindByProvider(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		fields := map[string]interface{}{"auth_provider_data": models.JSONMap(profile.Data)}
		if profile.Name != "" {
			fields["name"] = profile.Name
			user.Name = profile.Name
		}
		if err := s.users.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, err
		}
		user.AuthProviderData = profile.Data
		logger.Log.Debug("OAuth identity matched",
			zap.String("user_id", user.ID.String()),
			zap.String("provider", string(profile.Provider)),
		)
		return user, nil
	}

	// 2. Same email: link the identity onto the existing account
	user, err = s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if s.cfg.LinkRequiresVerifiedEmail && !user.EmailVerified {
			logger.Log.Warn("OAuth link refused: email not verified",
				zap.String("user_id", user.ID.String()),
				zap.String("provider", string(profile.Provider)),
			)
			return nil, apierror.Conflict("An account with this email already exists. Sign in with your password and verify your email before linking %s", profile.Provider)
		}

		providerID := profile.ProviderID
		if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{
			"auth_provider":      profile.Provider,
			"auth_provider_id":   providerID,
			"auth_provider_data": models.JSONMap(profile.Data),
		}); err != nil {
			return nil, err
		}
		user.AuthProvider = profile.Provider
		user.AuthProviderID = &providerID
		user.AuthProviderData = profile.Data

		logger.Log.Info("OAuth identity linked to existing account",
			zap.String("user_id", user.ID.String()),
			zap.String("provider", string(profile.Provider)),
		)
		return user, nil
	}

	// 3. New account without a password
	username, err := s.generateUniqueUsername(ctx, utils.UsernameBase(profile.Name, email))
	if err != nil {
		return nil, err
	}

	providerID := profile.ProviderID
	user = &models.User{
		Email:            email,
		Username:         &username,
		Name:             profile.Name,
		AuthProvider:     profile.Provider,
		AuthProviderID:   &providerID,
		AuthProviderData: profile.Data,
		IsActive:         true,
		EmailVerified:    profile.EmailVerified,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}
	if err := s.attachDefaultRole(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			// a parallel callback for the same identity may have won
			if winner, findErr := s.users.FindByProvider(ctx, profile.Provider, providerID); findErr == nil && winner != nil {
				return winner, nil
			}
			logger.Log.Warn("OAuth account creation hit unique constraint",
				zap.String("email", email),
				zap.String("provider", string(profile.Provider)),
			)
			return nil, apierror.Conflict("An account for %s was created concurrently, please sign in again", email)
		}
		logger.Log.Error("Failed to create OAuth user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("OAuth user created",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", string(profile.Provider)),
		zap.String("username", username),
	)
	return user, nil
}

// OAuthLogin resolves the profile and issues a token pair.
func (s *AuthService) OAuthLogin(ctx context.Context, profile OAuthProfile, meta ClientMeta) (*AuthResult, error) {
	user, err := s.FindOrCreateOAuthUser(ctx, profile)
	if err != nil {
		s.metrics.AuthEvent("oauth", "failure")
		return nil, err
	}
	if err := checkAccountStatus(user); err != nil {
		s.metrics.AuthEvent("oauth", "refused")
		return nil, err
	}
	if err := s.touchLastLogin(ctx, user); err != nil {
		return nil, err
	}

	result, err := s.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("oauth", "success")
	return result, nil
}

// Refresh mints a new access token from a live refresh token. The refresh
// token itself is returned unchanged. Roles are re-read, so this is how a
// client picks up role changes.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*AuthResult, error) {
	token, err := s.refreshTokens.Validate(ctx, rawRefreshToken)
	if err != nil {
		s.metrics.AuthEvent("refresh", "failure")
		return nil, err
	}

	user := token.User
	if err := checkAccountStatus(user); err != nil {
		s.metrics.AuthEvent("refresh", "refused")
		return nil, err
	}

	accessToken, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.metrics.AuthEvent("refresh", "success")
	logger.Log.Debug("Access token refreshed", zap.String("user_id", user.ID.String()))

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: rawRefreshToken,
		User:         user,
	}, nil
}

// Logout revokes the refresh token. Repeated calls succeed.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	return s.refreshTokens.Revoke(ctx, rawRefreshToken)
}

// ValidateUser returns the account if it exists, is active and is not banned.
func (s *AuthService) ValidateUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || user.IsBanned {
		return nil, nil
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.NotFound("User with ID %s not found", id)
	}
	return user, nil
}

// GenerateToken signs an access token carrying the user's current roles.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	token, err := utils.GenerateToken(user, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}
	return token, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User, meta ClientMeta) (*AuthResult, error) {
	accessToken, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.refreshTokens.Issue(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// attachDefaultRole gives user the "user" role when it exists.
func (s *AuthService) attachDefaultRole(ctx context.Context, user *models.User) error {
	role, err := s.roles.FindByName(ctx, models.RoleUser)
	if err != nil {
		logger.Log.Error("Failed to load default role", zap.Error(err))
		return err
	}
	if role == nil {
		logger.Log.Warn("Default role missing, creating user without roles")
		return nil
	}
	user.Roles = []models.Role{*role}
	return nil
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *models.User) error {
	now := time.Now()
	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		logger.Log.Error("Failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	user.LastLogin = &now
	return nil
}

// generateUniqueUsername sanitizes base and appends _1, _2, ... until free.
func (s *AuthService) generateUniqueUsername(ctx context.Context, base string) (string, error) {
	username := utils.SanitizeUsername(base)

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := utils.UsernameCandidate(username, attempt)
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", apierror.Conflict("Could not generate a unique username for %q", base)
}

func checkAccountStatus(user *models.User) error {
	if !user.IsActive {
		return apierror.Unauthorized("Account is deactivated")
	}
	if user.IsBanned {
		return apierror.Unauthorized("Account is banned")
	}
	return nil
}

func errInvalidCredentials() error {
	return apierror.Unauthorized("invalid credentials")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegisterInput(email string, req dto.RegisterRequest) error {
	if !emailRegex.MatchString(email) || len(email) > 255 {
		return apierror.BadRequest("invalid email format")
	}
	if len(req.Password) < 8 {
		return apierror.BadRequest("password must be at least 8 characters")
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		return apierror.BadRequest("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	if req.Username != "" && !utils.IsValidUsername(req.Username) {
		return apierror.BadRequest("username must be 3-20 characters of letters, digits and underscores")
	}
	if len(req.Name) > 100 {
		return apierror.BadRequest("name must be at most 100 characters")
	}
	return nil
}
