package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SeedOptions struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string

	// DemoData adds a regular user and a few listings owned by the admin.
	DemoData         bool
	DemoUserPassword string
}

type permissionDef struct {
	resource    string
	action      string
	description string
}

var defaultPermissions = []permissionDef{
	{"servers", "read", "View server listings"},
	{"servers", "create", "Create server listings"},
	{"servers", "update", "Update server listings"},
	{"servers", "delete", "Delete server listings"},
	{"servers", "approve", "Approve or reject server listings"},
	{"users", "read", "View users"},
	{"users", "create", "Create users"},
	{"users", "update", "Update users"},
	{"users", "delete", "Delete users"},
}

// role name -> permission strings; "*" grants everything
var defaultRoles = []struct {
	name        string
	description string
	permissions []string
}{
	{models.RoleAdmin, "Full access", []string{"*"}},
	{models.RoleUser, "Regular user", []string{"servers:read", "servers:create", "servers:update"}},
	{models.RoleModerator, "Listing moderator", []string{"servers:read", "servers:update"}},
}

// Seed creates the default permissions, roles and platform admin. It can be re-run safely.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) error {
	db = db.WithContext(ctx)

	perms := make(map[string]models.Permission, len(defaultPermissions))
	for _, def := range defaultPermissions {
		p := models.Permission{}
		err := db.Where(models.Permission{Resource: def.resource, Action: def.action}).
			Attrs(models.Permission{Description: def.description}).
			FirstOrCreate(&p).Error
		if err != nil {
			return fmt.Errorf("seed permission %s:%s: %w", def.resource, def.action, err)
		}
		perms[p.String()] = p
	}

	for _, def := range defaultRoles {
		role := models.Role{}
		err := db.Where(models.Role{Name: def.name}).
			Attrs(models.Role{Description: def.description}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", def.name, err)
		}

		var granted []models.Permission
		for _, name := range def.permissions {
			if name == "*" {
				for _, p := range perms {
					granted = append(granted, p)
				}
				continue
			}
			granted = append(granted, perms[name])
		}
		if err := db.Model(&role).Association("Permissions").Replace(granted); err != nil {
			return fmt.Errorf("seed role %s permissions: %w", def.name, err)
		}
	}

	logger.Log.Info("RBAC seeded",
		zap.Int("permissions", len(perms)),
		zap.Int("roles", len(defaultRoles)),
	)

	if opts.AdminPassword == "" {
		logger.Log.Warn("ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	admin, err := ensureUser(db, opts.AdminEmail, opts.AdminUsername, "Administrator", opts.AdminPassword, true, models.RoleAdmin)
	if err != nil {
		return err
	}

	if !opts.DemoData {
		return nil
	}

	demoPassword := opts.DemoUserPassword
	if demoPassword == "" {
		demoPassword = "password123"
	}
	if _, err := ensureUser(db, "user@user.com", "user", "Demo User", demoPassword, false, models.RoleUser); err != nil {
		return err
	}

	return seedDemoServers(db, admin)
}

func ensureUser(db *gorm.DB, email, username, name, password string, isAdmin bool, roleName string) (*models.User, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Log.Info("Seed user already exists", zap.String("email", email))
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, fmt.Errorf("load role %s: %w", roleName, err)
	}

	user := &models.User{
		Email:         email,
		Username:      &username,
		Name:          name,
		PasswordHash:  &hash,
		AuthProvider:  models.AuthProviderPassword,
		IsActive:      true,
		EmailVerified: true,
		IsAdmin:       isAdmin,
		Roles:         []models.Role{role},
	}
	if err := db.Omit("Roles.*").Create(user).Error; err != nil {
		return nil, fmt.Errorf("create seed user %s: %w", email, err)
	}

	logger.Log.Info("Seed user created",
		zap.String("email", email),
		zap.Bool("is_admin", isAdmin),
	)
	return user, nil
}

func seedDemoServers(db *gorm.DB, owner *models.User) error {
	demo := []models.Server{
		{
			Name:        "Hytale Kingdoms",
			Slug:        utils.GenerateSlug("Hytale Kingdoms"),
			IPAddress:   "play.kingdoms.example",
			Port:        3000,
			Description: "A long running survival realm with player run towns, seasonal events and a friendly community.",
			Category:    "Survival",
			Region:      "EU",
			Language:    "en",
			MaxPlayers:  500,
			Status:      models.ServerStatusApproved,
			Featured:    true,
		},
		{
			Name:        "Orbis Arena",
			Slug:        utils.GenerateSlug("Orbis Arena"),
			IPAddress:   "arena.orbis.example",
			Port:        3001,
			Description: "Competitive PvP arenas with ranked ladders, weekly tournaments and custom kits for every playstyle.",
			Category:    "PvP",
			Region:      "NA",
			Language:    "en",
			MaxPlayers:  200,
			Status:      models.ServerStatusPending,
		},
	}

	for i := range demo {
		demo[i].OwnerID = owner.ID
		var count int64
		if err := db.Model(&models.Server{}).Where("slug = ?", demo[i].Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&demo[i]).Error; err != nil {
			return fmt.Errorf("seed server %s: %w", demo[i].Slug, err)
		}
	}
	return nil
}
