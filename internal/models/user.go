package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderGitHub   AuthProvider = "github"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderDiscord  AuthProvider = "discord"
)

// User is an account. A nil PasswordHash marks an OAuth-only account.
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username         *string        `gorm:"type:varchar(20);uniqueIndex" json:"username,omitempty"`
	Name             string         `gorm:"type:varchar(100)" json:"name"`
	PasswordHash     *string        `gorm:"type:varchar(255)" json:"-"`
	AvatarURL        *string        `gorm:"type:varchar(500)" json:"avatarUrl,omitempty"`
	Bio              *string        `gorm:"type:text" json:"bio,omitempty"`
	AuthProvider     AuthProvider   `gorm:"type:varchar(50);not null" json:"authProvider"`
	AuthProviderID   *string        `gorm:"type:varchar(255);index" json:"-"`
	AuthProviderData JSONMap        `gorm:"type:text" json:"-"`
	IsActive         bool           `gorm:"not null" json:"isActive"`
	EmailVerified    bool           `gorm:"not null" json:"emailVerified"`
	IsBanned         bool           `gorm:"not null" json:"isBanned"`
	IsAdmin          bool           `gorm:"not null" json:"isAdmin"`
	LastLogin        *time.Time     `json:"lastLogin,omitempty"`
	Roles            []Role         `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasPassword reports whether password login is available for the account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// DisplayName is the name shown to clients, falling back to the username.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != nil {
		return *u.Username
	}
	return ""
}

// RoleNames lists the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
