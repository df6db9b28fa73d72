package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// withRoles preloads roles and their permissions, needed for token issuance.
func (r *UserRepository) withRoles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Roles.Permissions")
}

// Create inserts user and links its already persisted roles.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Roles.*").Create(user).Error
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.withRoles(ctx).Where("email = ?", email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(r.withRoles(ctx).Where("username = ?", username))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(r.withRoles(ctx).Where("id = ?", id))
}

func (r *UserRepository) FindByProvider(ctx context.Context, provider models.AuthProvider, providerID string) (*models.User, error) {
	return r.first(r.withRoles(ctx).Where("auth_provider = ? AND auth_provider_id = ?", provider, providerID))
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// UpdateFields writes the given columns only.
func (r *UserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) AddRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Omit("Roles.*").Association("Roles").Append(role)
}

func (r *UserRepository) RemoveRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Delete(role)
}

// first returns (nil, nil) when no row matches.
func (r *UserRepository) first(q *gorm.DB) (*models.User, error) {
	var user models.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
