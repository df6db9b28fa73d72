package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/metrics"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/rbac"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

// AuditRecorder appends moderation entries.
type AuditRecorder interface {
	Append(entry audit.Entry) error
}

// UserService holds account moderation used by platform admins.
type UserService struct {
	users         *repository.UserRepository
	roles         *repository.RoleRepository
	refreshTokens *RefreshTokenService
	audit         AuditRecorder
	metrics       *metrics.Metrics
}

func NewUserService(
	users *repository.UserRepository,
	roles *repository.RoleRepository,
	refreshTokens *RefreshTokenService,
	auditLog AuditRecorder,
	m *metrics.Metrics,
) *UserService {
	return &UserService{
		users:         users,
		roles:         roles,
		refreshTokens: refreshTokens,
		audit:         auditLog,
		metrics:       m,
	}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	logger.Log.Debug("Fetching all users")

	users, err := s.users.List(ctx)
	if err != nil {
		logger.Log.Error("Failed to fetch users", zap.Error(err))
		return nil, err
	}

	return users, nil
}

func (s *UserService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

// Ban blocks the account and ends all of its sessions.
func (s *UserService) Ban(ctx context.Context, actor *rbac.Principal, id uuid.UUID, reason string) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.UserID == id {
		return nil, apierror.BadRequest("You cannot ban yourself")
	}
	if user.IsAdmin {
		return nil, apierror.Forbidden("Platform administrators cannot be banned")
	}

	if err := s.users.UpdateFields(ctx, id, map[string]interface{}{"is_banned": true}); err != nil {
		logger.Log.Error("Failed to ban user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}
	user.IsBanned = true

	revoked, err := s.refreshTokens.RevokeAll(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to revoke sessions of banned user", zap.String("user_id", id.String()), zap.Error(err))
		return nil, err
	}

	s.record(actor, "user.banned", id, reason)
	logger.Log.Info("User banned",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actorID(actor)),
		zap.String("reason", reason),
		zap.Int64("revoked_sessions", revoked),
	)

	return user, nil
}

func (s *UserService) Unban(ctx context.Context, actor *rbac.Principal, id uuid.UUID) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateFields(ctx, id, map[string]interface{}{"is_banned": false}); err != nil {
		return nil, err
	}
	user.IsBanned = false

	s.record(actor, "user.unbanned", id, "")
	logger.Log.Info("User unbanned",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actorID(actor)),
	)
	return user, nil
}

// AssignRole grants a role by name. Already held roles are left as is.
func (s *UserService) AssignRole(ctx context.Context, actor *rbac.Principal, id uuid.UUID, roleName string) (*models.User, error) {
	user, role, err := s.loadWithRole(ctx, id, roleName)
	if err != nil {
		return nil, err
	}

	if !hasRole(user, roleName) {
		if err := s.users.AddRole(ctx, user, role); err != nil {
			return nil, err
		}
		s.record(actor, "user.role_assigned", id, roleName)
	}

	return s.load(ctx, id)
}

func (s *UserService) RevokeRole(ctx context.Context, actor *rbac.Principal, id uuid.UUID, roleName string) (*models.User, error) {
	user, role, err := s.loadWithRole(ctx, id, roleName)
	if err != nil {
		return nil, err
	}

	if hasRole(user, roleName) {
		if err := s.users.RemoveRole(ctx, user, role); err != nil {
			return nil, err
		}
		s.record(actor, "user.role_revoked", id, roleName)
	}

	return s.load(ctx, id)
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.NotFound("User with ID %s not found", id)
	}
	return user, nil
}

func (s *UserService) loadWithRole(ctx context.Context, id uuid.UUID, roleName string) (*models.User, *models.Role, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, nil, err
	}
	if role == nil {
		return nil, nil, apierror.NotFound("Role '%s' not found", roleName)
	}
	return user, role, nil
}

func (s *UserService) record(actor *rbac.Principal, action string, target uuid.UUID, detail string) {
	s.metrics.ModerationAction(action)
	recordAudit(s.audit, audit.Entry{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		ActorID:    actorID(actor),
		TargetType: "user",
		TargetID:   target.String(),
		Detail:     detail,
	})
}

func hasRole(user *models.User, name string) bool {
	for _, r := range user.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// recordAudit writes entry when a recorder is configured. Failures are logged only.
func recordAudit(recorder AuditRecorder, entry audit.Entry) {
	if recorder == nil {
		return
	}
	if err := recorder.Append(entry); err != nil {
		logger.Log.Error("Failed to append audit entry",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

func actorID(actor *rbac.Principal) string {
	if actor == nil {
		return ""
	}
	return actor.UserID.String()
}
