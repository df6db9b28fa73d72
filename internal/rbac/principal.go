// Package rbac evaluates role, permission and platform-admin requirements
// against the identity attached to a request.
package rbac

import (
	"sort"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
)

// Principal is the authenticated caller. Roles and permissions come from the
// access token snapshot; IsAdmin is the platform-admin flag of the account.
type Principal struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
	Roles   []string

	permissions map[string]struct{}
}

func NewPrincipal(userID uuid.UUID, email string, isAdmin bool, roles, permissions []string) *Principal {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return &Principal{
		UserID:      userID,
		Email:       email,
		IsAdmin:     isAdmin,
		Roles:       roles,
		permissions: set,
	}
}

// PrincipalFromUser builds a principal from a user with roles and permissions loaded.
func PrincipalFromUser(u *models.User) *Principal {
	var perms []string
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			perms = append(perms, p.String())
		}
	}
	return NewPrincipal(u.ID, u.Email, u.IsAdmin, u.RoleNames(), perms)
}

func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

func (p *Principal) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

func (p *Principal) HasPermission(permission string) bool {
	_, ok := p.permissions[permission]
	return ok
}

// Permissions returns the sorted permission set.
func (p *Principal) Permissions() []string {
	out := make([]string, 0, len(p.permissions))
	for perm := range p.permissions {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// CanUpdateServer: the owner, a platform admin, or an admin role. Moderators
// hold servers:update for their own listings only.
func CanUpdateServer(p *Principal, ownerID uuid.UUID) bool {
	if p == nil {
		return false
	}
	return p.UserID == ownerID || p.IsAdmin || p.HasRole(models.RoleAdmin)
}

// CanDeleteServer: the owner, a platform admin, or an admin role.
func CanDeleteServer(p *Principal, ownerID uuid.UUID) bool {
	if p == nil {
		return false
	}
	return p.UserID == ownerID || p.IsAdmin || p.HasRole(models.RoleAdmin)
}
