package testutil

import (
	"context"
	"testing"

	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/utils"
	"gorm.io/gorm"
)

// UserFixture describes a user to insert. Zero values give an active,
// verified password account with the "user" role.
type UserFixture struct {
	Email      string
	Username   string
	Password   string
	Roles      []string
	IsAdmin    bool
	Inactive   bool
	Banned     bool
	Unverified bool
}

// CreateTestUser inserts a user and returns it with roles and permissions loaded.
func CreateTestUser(t *testing.T, db *gorm.DB, f UserFixture) *models.User {
	t.Helper()

	if f.Email == "" {
		f.Email = "test@example.com"
	}
	if f.Roles == nil {
		f.Roles = []string{models.RoleUser}
	}

	user := &models.User{
		Email:         f.Email,
		Name:          f.Username,
		AuthProvider:  models.AuthProviderPassword,
		IsActive:      !f.Inactive,
		IsBanned:      f.Banned,
		IsAdmin:       f.IsAdmin,
		EmailVerified: !f.Unverified,
	}
	if f.Username != "" {
		username := f.Username
		user.Username = &username
	}
	if f.Password != "" {
		hash, err := utils.HashPassword(f.Password)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		user.PasswordHash = &hash
	}

	for _, name := range f.Roles {
		var role models.Role
		if err := db.Where("name = ?", name).First(&role).Error; err != nil {
			t.Fatalf("Role %s not seeded: %v", name, err)
		}
		user.Roles = append(user.Roles, role)
	}

	if err := db.Omit("Roles.*").Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	var loaded models.User
	if err := db.Preload("Roles.Permissions").First(&loaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("Failed to reload test user: %v", err)
	}
	return &loaded
}

// CreateTestServer inserts a pending listing owned by owner.
func CreateTestServer(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Server {
	t.Helper()

	server := &models.Server{
		OwnerID:     owner.ID,
		Name:        name,
		Slug:        utils.GenerateSlug(name),
		IPAddress:   "play.example.com",
		Port:        3000,
		Description: "A friendly test server with plenty of room for new players to explore.",
		Category:    "Survival",
		Region:      "EU",
		Language:    "en",
		MaxPlayers:  100,
		Status:      models.ServerStatusPending,
	}
	if err := db.WithContext(context.Background()).Omit("Owner").Create(server).Error; err != nil {
		t.Fatalf("Failed to create test server: %v", err)
	}
	return server
}
