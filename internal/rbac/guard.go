package rbac

import (
	"strings"

	"github.com/hynexus/hynexus-api/pkg/apierror"
)

// Guard is a read-only check on the caller. A nil error lets the request through.
type Guard func(p *Principal) error

// Authenticated fails when no principal is attached.
func Authenticated() Guard {
	return func(p *Principal) error {
		if p == nil {
			return apierror.Forbidden("Authentication required")
		}
		return nil
	}
}

// RequireAnyRole passes when the caller holds at least one of roles.
func RequireAnyRole(roles ...string) Guard {
	return func(p *Principal) error {
		if p == nil {
			return apierror.Forbidden("Authentication required")
		}
		if len(roles) == 0 || p.HasAnyRole(roles...) {
			return nil
		}
		return apierror.Forbidden("Access denied: requires one of roles [%s]", strings.Join(roles, ", "))
	}
}

// RequireAllPermissions passes when the caller holds every permission.
func RequireAllPermissions(permissions ...string) Guard {
	return func(p *Principal) error {
		if p == nil {
			return apierror.Forbidden("Authentication required")
		}
		for _, perm := range permissions {
			if !p.HasPermission(perm) {
				return apierror.Forbidden("Access denied: missing permission %s", perm)
			}
		}
		return nil
	}
}

// RequirePlatformAdmin passes only for the platform-admin flag, regardless of roles.
func RequirePlatformAdmin() Guard {
	return func(p *Principal) error {
		if p == nil {
			return apierror.Forbidden("Authentication required")
		}
		if !p.IsAdmin {
			return apierror.Forbidden("Access denied: Platform administrator privileges required")
		}
		return nil
	}
}

// Policy is the capability set a route declares.
type Policy struct {
	Roles         []string
	Permissions   []string
	PlatformAdmin bool
}

// Guards compiles the policy into its fixed evaluation order:
// authenticated, roles, permissions, platform admin.
func (pol Policy) Guards() []Guard {
	guards := []Guard{Authenticated()}
	if len(pol.Roles) > 0 {
		guards = append(guards, RequireAnyRole(pol.Roles...))
	}
	if len(pol.Permissions) > 0 {
		guards = append(guards, RequireAllPermissions(pol.Permissions...))
	}
	if pol.PlatformAdmin {
		guards = append(guards, RequirePlatformAdmin())
	}
	return guards
}

// Evaluate runs guards in order and returns the first failure.
func Evaluate(p *Principal, guards []Guard) error {
	for _, g := range guards {
		if err := g(p); err != nil {
			return err
		}
	}
	return nil
}

func (pol Policy) Evaluate(p *Principal) error {
	return Evaluate(p, pol.Guards())
}
