package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/broker"
	"github.com/hynexus/hynexus-api/internal/cache"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/metrics"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/rbac"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultServerPort     = 3000
	defaultServerLanguage = "en"
)

// ServerService manages directory listings behind a read-through cache.
// A concurrent reader may see the previous value between a write and its
// invalidation.
type ServerService struct {
	repo    *repository.ServerRepository
	cache   cache.Cache
	events  broker.Publisher
	audit   AuditRecorder
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewServerService wires the service. events and auditLog may be nil.
func NewServerService(
	repo *repository.ServerRepository,
	c cache.Cache,
	events broker.Publisher,
	auditLog AuditRecorder,
	m *metrics.Metrics,
	ttl time.Duration,
) *ServerService {
	return &ServerService{
		repo:    repo,
		cache:   c,
		events:  events,
		audit:   auditLog,
		metrics: m,
		ttl:     ttl,
	}
}

// Create adds a listing owned by actor. Status always starts pending.
func (s *ServerService) Create(ctx context.Context, actor *rbac.Principal, req dto.CreateServerRequest) (*models.Server, error) {
	if actor == nil {
		return nil, apierror.Forbidden("Authentication required")
	}

	slug, err := s.availableSlug(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	server := &models.Server{
		OwnerID:     actor.UserID,
		Slug:        slug,
		Name:        req.Name,
		IPAddress:   req.IPAddress,
		Port:        defaultServerPort,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
		DiscordURL:  req.DiscordURL,
		BannerURL:   req.BannerURL,
		LogoURL:     req.LogoURL,
		Category:    req.Category,
		Region:      req.Region,
		Language:    defaultServerLanguage,
		MaxPlayers:  req.MaxPlayers,
		Status:      models.ServerStatusPending,
		Theme:       req.Theme,
	}
	if req.Port != nil {
		server.Port = *req.Port
	}
	if req.Language != nil {
		server.Language = *req.Language
	}
	if req.CurrentPlayers != nil {
		server.CurrentPlayers = *req.CurrentPlayers
	}

	if err := s.repo.Create(ctx, server); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, errSlugTaken(slug)
		}
		logger.Log.Error("Failed to create server",
			zap.String("owner_id", actor.UserID.String()),
			zap.String("slug", slug),
			zap.Error(err),
		)
		return nil, err
	}

	invalidate(ctx, s.cache, cacheKeyAllServers)
	s.publish(ctx, broker.EventServerCreated, server, actor)

	logger.Log.Info("Server created",
		zap.String("server_id", server.ID.String()),
		zap.String("slug", slug),
		zap.String("owner_id", actor.UserID.String()),
	)
	return server, nil
}

func (s *ServerService) FindAll(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	if readThrough(ctx, s.cache, cacheKeyAllServers, &servers) {
		return servers, nil
	}

	servers, err := s.repo.FindAll(ctx)
	if err != nil {
		logger.Log.Error("Failed to list servers", zap.Error(err))
		return nil, err
	}
	if servers == nil {
		servers = []models.Server{}
	}

	writeCache(ctx, s.cache, cacheKeyAllServers, servers, s.ttl)
	return servers, nil
}

func (s *ServerService) FindOne(ctx context.Context, id uuid.UUID) (*models.Server, error) {
	key := serverIDKey(id)

	var cached models.Server
	if readThrough(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	server, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, errServerNotFound(id)
	}

	writeCache(ctx, s.cache, key, server, s.ttl)
	return server, nil
}

func (s *ServerService) FindBySlug(ctx context.Context, slug string) (*models.Server, error) {
	key := serverSlugKey(slug)

	var cached models.Server
	if readThrough(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	server, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, apierror.NotFound("Server with slug '%s' not found", slug)
	}

	writeCache(ctx, s.cache, key, server, s.ttl)
	return server, nil
}

// Update merges the provided fields. Renaming regenerates the slug.
// Allowed for the owner, platform admins and the admin role.
func (s *ServerService) Update(ctx context.Context, actor *rbac.Principal, id uuid.UUID, req dto.UpdateServerRequest) (*models.Server, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errServerNotFound(id)
	}
	if !rbac.CanUpdateServer(actor, existing.OwnerID) {
		logger.Log.Warn("Server update denied",
			zap.String("server_id", id.String()),
			zap.String("actor_id", actorID(actor)),
		)
		return nil, apierror.Forbidden("You can only modify your own servers")
	}
	if req.Verified != nil && !(actor.IsAdmin || actor.HasRole(models.RoleAdmin)) {
		return nil, apierror.Forbidden("Only administrators can change verification")
	}

	fields := updateFields(req)
	if req.Name != nil && *req.Name != existing.Name {
		slug, err := s.availableSlug(ctx, *req.Name, id)
		if err != nil {
			return nil, err
		}
		fields["slug"] = slug
	}
	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if slug, ok := fields["slug"].(string); ok && repository.IsDuplicateKey(err) {
			return nil, errSlugTaken(slug)
		}
		logger.Log.Error("Failed to update server", zap.String("server_id", id.String()), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errServerNotFound(id)
	}

	invalidate(ctx, s.cache,
		cacheKeyAllServers,
		serverIDKey(id),
		serverSlugKey(existing.Slug),
		serverSlugKey(updated.Slug),
		themeKey(existing.Slug),
		themeKey(updated.Slug),
	)
	s.publish(ctx, broker.EventServerUpdated, updated, actor)

	logger.Log.Info("Server updated",
		zap.String("server_id", id.String()),
		zap.String("actor_id", actorID(actor)),
		zap.Int("fields", len(fields)),
	)
	return updated, nil
}

// Remove deletes a listing. Allowed for the owner, platform admins and the admin role.
func (s *ServerService) Remove(ctx context.Context, actor *rbac.Principal, id uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errServerNotFound(id)
	}
	if !rbac.CanDeleteServer(actor, existing.OwnerID) {
		return apierror.Forbidden("You can only delete your own servers")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to delete server", zap.String("server_id", id.String()), zap.Error(err))
		return err
	}
	if !deleted {
		return errServerNotFound(id)
	}

	invalidate(ctx, s.cache,
		cacheKeyAllServers,
		serverIDKey(id),
		serverSlugKey(existing.Slug),
		themeKey(existing.Slug),
	)
	s.moderated(ctx, "server.deleted", broker.EventServerDeleted, existing, actor)

	logger.Log.Info("Server deleted",
		zap.String("server_id", id.String()),
		zap.String("actor_id", actorID(actor)),
	)
	return nil
}

// Approve sets the status to approved whatever the current status is.
func (s *ServerService) Approve(ctx context.Context, actor *rbac.Principal, id uuid.UUID) (*models.Server, error) {
	return s.setStatus(ctx, actor, id, models.ServerStatusApproved, broker.EventServerApproved)
}

// Reject sets the status to rejected whatever the current status is.
func (s *ServerService) Reject(ctx context.Context, actor *rbac.Principal, id uuid.UUID) (*models.Server, error) {
	return s.setStatus(ctx, actor, id, models.ServerStatusRejected, broker.EventServerRejected)
}

func (s *ServerService) setStatus(ctx context.Context, actor *rbac.Principal, id uuid.UUID, status models.ServerStatus, event broker.EventType) (*models.Server, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errServerNotFound(id)
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		logger.Log.Error("Failed to change server status",
			zap.String("server_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errServerNotFound(id)
	}

	invalidate(ctx, s.cache,
		cacheKeyAllServers,
		serverIDKey(id),
		serverSlugKey(existing.Slug),
	)
	s.moderated(ctx, string(event), event, updated, actor)

	logger.Log.Info("Server status changed",
		zap.String("server_id", id.String()),
		zap.String("from", string(existing.Status)),
		zap.String("to", string(status)),
		zap.String("actor_id", actorID(actor)),
	)
	return updated, nil
}

// availableSlug derives the slug of name and checks nobody else holds it.
func (s *ServerService) availableSlug(ctx context.Context, name string, self uuid.UUID) (string, error) {
	slug := utils.GenerateSlug(name)
	if slug == "" {
		return "", apierror.BadRequest("Server name must contain at least one letter or digit")
	}

	taken, err := s.repo.SlugTaken(ctx, slug, self)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errSlugTaken(slug)
	}
	return slug, nil
}

// moderated records an audit entry and publishes the event.
func (s *ServerService) moderated(ctx context.Context, action string, event broker.EventType, server *models.Server, actor *rbac.Principal) {
	s.metrics.ModerationAction(action)
	recordAudit(s.audit, audit.Entry{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		ActorID:    actorID(actor),
		TargetType: "server",
		TargetID:   server.ID.String(),
		Detail:     server.Slug,
	})
	s.publish(ctx, event, server, actor)
}

func (s *ServerService) publish(ctx context.Context, eventType broker.EventType, server *models.Server, actor *rbac.Principal) {
	if s.events == nil {
		return
	}

	event := broker.ServerEvent{
		Type:       eventType,
		ServerID:   server.ID,
		Slug:       server.Slug,
		Name:       server.Name,
		Status:     string(server.Status),
		OwnerID:    server.OwnerID,
		OccurredAt: time.Now().UTC(),
	}
	if actor != nil {
		event.ActorID = actor.UserID
	}

	if err := s.events.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish server event",
			zap.String("type", string(eventType)),
			zap.String("server_id", server.ID.String()),
			zap.Error(err),
		)
	}
}

func updateFields(req dto.UpdateServerRequest) map[string]interface{} {
	fields := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	setInt := func(col string, v *int) {
		if v != nil {
			fields[col] = *v
		}
	}

	setString("name", req.Name)
	setString("ip_address", req.IPAddress)
	setInt("port", req.Port)
	setString("description", req.Description)
	setString("website_url", req.WebsiteURL)
	setString("discord_url", req.DiscordURL)
	setString("banner_url", req.BannerURL)
	setString("logo_url", req.LogoURL)
	setString("category", req.Category)
	setString("region", req.Region)
	setString("language", req.Language)
	setInt("max_players", req.MaxPlayers)
	setInt("current_players", req.CurrentPlayers)
	if req.IsOnline != nil {
		fields["is_online"] = *req.IsOnline
	}
	if req.Verified != nil {
		fields["verified"] = *req.Verified
	}
	if req.Theme != nil {
		fields["theme"] = req.Theme
	}
	return fields
}

func errServerNotFound(id uuid.UUID) error {
	return apierror.NotFound("Server with ID %s not found", id)
}

func errSlugTaken(slug string) error {
	return apierror.Conflict("A server with slug '%s' already exists", slug)
}
