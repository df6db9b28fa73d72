package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"gorm.io/gorm"
)

type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

func (r *ServerRepository) Create(ctx context.Context, server *models.Server) error {
	return r.db.WithContext(ctx).Omit("Owner").Create(server).Error
}

// FindAll lists servers with featured ones first, then newest.
func (r *ServerRepository) FindAll(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := r.db.WithContext(ctx).Order("featured DESC").Order("created_at DESC").Find(&servers).Error
	return servers, err
}

func (r *ServerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Server, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *ServerRepository) FindBySlug(ctx context.Context, slug string) (*models.Server, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ?", slug))
}

// SlugTaken reports whether another server already uses slug.
func (r *ServerRepository) SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Server{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields writes the given columns only.
func (r *ServerRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Server{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes the row and reports whether it existed.
func (r *ServerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Server{})
	return res.RowsAffected > 0, res.Error
}

func (r *ServerRepository) first(q *gorm.DB) (*models.Server, error) {
	var server models.Server
	if err := q.First(&server).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &server, nil
}
