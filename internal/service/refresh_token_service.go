package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

// ClientMeta is recorded on refresh tokens for session auditing.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// RefreshTokenService issues, validates and revokes opaque refresh tokens.
// Only the SHA-256 of a token is persisted.
type RefreshTokenService struct {
	repo *repository.RefreshTokenRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewRefreshTokenService(repo *repository.RefreshTokenRepository, ttl time.Duration) *RefreshTokenService {
	return &RefreshTokenService{repo: repo, ttl: ttl, now: time.Now}
}

func (s *RefreshTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a token for userID and returns its raw value.
func (s *RefreshTokenService) Issue(ctx context.Context, userID uuid.UUID, meta ClientMeta) (string, error) {
	raw, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", err
	}

	token := &models.RefreshToken{
		TokenHash: utils.HashToken(raw),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
		UserAgent: truncate(meta.UserAgent, 500),
		IPAddress: truncate(meta.IPAddress, 64),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		logger.Log.Error("Failed to store refresh token",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return "", err
	}

	return raw, nil
}

// Validate returns the live token with its user loaded, or Unauthorized.
func (s *RefreshTokenService) Validate(ctx context.Context, raw string) (*models.RefreshToken, error) {
	if raw == "" {
		return nil, apierror.Unauthorized("Invalid refresh token")
	}

	token, err := s.repo.FindByHash(ctx, utils.HashToken(raw))
	if err != nil {
		return nil, err
	}
	if token == nil || token.User == nil {
		return nil, apierror.Unauthorized("Invalid refresh token")
	}
	if token.Revoked {
		logger.Log.Warn("Revoked refresh token presented",
			zap.String("user_id", token.UserID.String()),
		)
		return nil, apierror.Unauthorized("Refresh token has been revoked")
	}
	if token.IsExpired(s.now()) {
		return nil, apierror.Unauthorized("Refresh token has expired")
	}

	return token, nil
}

// Revoke marks the token revoked. Unknown or already revoked tokens are a no-op.
func (s *RefreshTokenService) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	changed, err := s.repo.Revoke(ctx, utils.HashToken(raw))
	if err != nil {
		return err
	}
	if !changed {
		logger.Log.Debug("Refresh token already revoked or unknown")
	}
	return nil
}

// RevokeAll ends every session of the user.
func (s *RefreshTokenService) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.RevokeAllForUser(ctx, userID)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
