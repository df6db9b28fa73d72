package service

import (
	"context"
	"time"

	"github.com/hynexus/hynexus-api/internal/cache"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

// ThemeService serves the public custom theme of a listing.
type ThemeService struct {
	servers *repository.ServerRepository
	cache   cache.Cache
	ttl     time.Duration
}

func NewThemeService(servers *repository.ServerRepository, c cache.Cache, ttl time.Duration) *ThemeService {
	return &ThemeService{servers: servers, cache: c, ttl: ttl}
}

func (s *ThemeService) GetServerTheme(ctx context.Context, slug string) (*dto.ServerThemeResponse, error) {
	key := themeKey(slug)

	var cached dto.ServerThemeResponse
	if readThrough(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	server, err := s.servers.FindBySlug(ctx, slug)
	if err != nil {
		logger.Log.Error("Failed to load server theme", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	if server == nil {
		return nil, apierror.NotFound("Server '%s' not found", slug)
	}
	if server.Theme == nil {
		return nil, apierror.NotFound("Server '%s' does not have a custom theme configured", slug)
	}

	resp := &dto.ServerThemeResponse{
		ServerID:   server.ID,
		ServerSlug: server.Slug,
		ServerName: server.Name,
		Theme:      *server.Theme,
		CreatedAt:  server.CreatedAt,
		UpdatedAt:  server.UpdatedAt,
	}

	writeCache(ctx, s.cache, key, resp, s.ttl)
	return resp, nil
}
