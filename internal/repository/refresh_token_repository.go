package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Omit("User").Create(token).Error
}

// FindByHash loads the token with its user, roles and permissions, or nil.
func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Preload("User.Roles.Permissions").
		Where("token_hash = ?", hash).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// Revoke marks the token revoked. It reports whether a live token was changed.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, hash string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", hash, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": now})
	return res.RowsAffected > 0, res.Error
}

// RevokeAllForUser revokes every live token of the user and returns how many changed.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": now})
	return res.RowsAffected, res.Error
}
