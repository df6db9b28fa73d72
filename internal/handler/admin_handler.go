package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/dto"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// IPBanList is the ban set consulted by the rate limiter.
type IPBanList interface {
	BanIP(ctx context.Context, ip string) error
	UnbanIP(ctx context.Context, ip string) (bool, error)
	BannedIPs(ctx context.Context) ([]string, error)
}

// AuditLog reads and appends moderation entries.
type AuditLog interface {
	Append(entry audit.Entry) error
	Recent(limit int) ([]audit.Entry, error)
}

type AdminHandler struct {
	userService *service.UserService
	ipBans      IPBanList
	auditLog    AuditLog
}

func NewAdminHandler(userService *service.UserService, ipBans IPBanList, auditLog AuditLog) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		ipBans:      ipBans,
		auditLog:    auditLog,
	}
}

// ListUsers returns all users, banned ones included.
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserSummary(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/admin/roles
func (h *AdminHandler) ListRoles(c *gin.Context) {
	roles, err := h.userService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// BanUser blocks the account and revokes its sessions.
// POST /api/v1/admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.BanRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Ban(c.Request.Context(), middleware.CurrentPrincipal(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserSummary(user))
}

// POST /api/v1/admin/users/:id/unban
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Unban(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserSummary(user))
}

// POST /api/v1/admin/users/:id/roles
func (h *AdminHandler) AssignRole(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AssignRole(c.Request.Context(), middleware.CurrentPrincipal(c), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserSummary(user))
}

// DELETE /api/v1/admin/users/:id/roles/:role
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.RevokeRole(c.Request.Context(), middleware.CurrentPrincipal(c), id, c.Param("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserSummary(user))
}

// GET /api/v1/admin/ip-bans
func (h *AdminHandler) ListIPBans(c *gin.Context) {
	ips, err := h.ipBans.BannedIPs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ips": ips})
}

// POST /api/v1/admin/ip-bans
func (h *AdminHandler) BanIP(c *gin.Context) {
	var req dto.IPBanRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ipBans.BanIP(c.Request.Context(), req.IP); err != nil {
		respondError(c, err)
		return
	}

	h.record(c, "ip.banned", req.IP)
	c.JSON(http.StatusCreated, gin.H{"ip": req.IP})
}

// DELETE /api/v1/admin/ip-bans/:ip
func (h *AdminHandler) UnbanIP(c *gin.Context) {
	ip := c.Param("ip")

	removed, err := h.ipBans.UnbanIP(c.Request.Context(), ip)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		respondError(c, apierror.NotFound("IP %s is not banned", ip))
		return
	}

	h.record(c, "ip.unbanned", ip)
	c.Status(http.StatusNoContent)
}

// Audit returns the newest moderation entries first.
// GET /api/v1/admin/audit?limit=N
func (h *AdminHandler) Audit(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, apierror.BadRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.auditLog.Recent(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *AdminHandler) record(c *gin.Context, action, ip string) {
	entry := audit.Entry{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		TargetType: "ip",
		TargetID:   ip,
	}
	if p := middleware.CurrentPrincipal(c); p != nil {
		entry.ActorID = p.UserID.String()
	}
	if err := h.auditLog.Append(entry); err != nil {
		logger.Log.Error("Failed to append audit entry", zap.String("action", action), zap.Error(err))
	}
	logger.Log.Info("IP ban list changed", zap.String("action", action), zap.String("ip", ip), zap.String("admin_id", entry.ActorID))
}
