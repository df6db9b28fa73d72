package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
)

// CreateServerRequest is the body of POST /servers. Any status sent by the
// client is ignored; new listings start pending.
type CreateServerRequest struct {
	Name           string        `json:"name" binding:"required,min=3,max=100"`
	IPAddress      string        `json:"ipAddress" binding:"required,min=1,max=255"`
	Port           *int          `json:"port" binding:"omitempty,min=1,max=65535"`
	Description    string        `json:"description" binding:"required,min=50,max=5000"`
	WebsiteURL     string        `json:"websiteUrl" binding:"omitempty,url,max=500"`
	DiscordURL     string        `json:"discordUrl" binding:"omitempty,url,max=500"`
	BannerURL      string        `json:"bannerUrl" binding:"omitempty,url,max=500"`
	LogoURL        string        `json:"logoUrl" binding:"omitempty,url,max=500"`
	Category       string        `json:"category" binding:"required,oneof=Survival PvP Creative Minigames RPG Roleplay Anarchy"`
	Region         string        `json:"region" binding:"required,oneof=NA EU Asia Oceania SA"`
	Language       *string       `json:"language" binding:"omitempty,min=2,max=10"`
	MaxPlayers     int           `json:"maxPlayers" binding:"required,min=1,max=10000"`
	CurrentPlayers *int          `json:"currentPlayers" binding:"omitempty,min=0"`
	Theme          *models.Theme `json:"theme" binding:"omitempty"`
}

// UpdateServerRequest is a partial update; nil fields are left untouched.
type UpdateServerRequest struct {
	Name           *string       `json:"name" binding:"omitempty,min=3,max=100"`
	IPAddress      *string       `json:"ipAddress" binding:"omitempty,min=1,max=255"`
	Port           *int          `json:"port" binding:"omitempty,min=1,max=65535"`
	Description    *string       `json:"description" binding:"omitempty,min=50,max=5000"`
	WebsiteURL     *string       `json:"websiteUrl" binding:"omitempty,url,max=500"`
	DiscordURL     *string       `json:"discordUrl" binding:"omitempty,url,max=500"`
	BannerURL      *string       `json:"bannerUrl" binding:"omitempty,url,max=500"`
	LogoURL        *string       `json:"logoUrl" binding:"omitempty,url,max=500"`
	Category       *string       `json:"category" binding:"omitempty,oneof=Survival PvP Creative Minigames RPG Roleplay Anarchy"`
	Region         *string       `json:"region" binding:"omitempty,oneof=NA EU Asia Oceania SA"`
	Language       *string       `json:"language" binding:"omitempty,min=2,max=10"`
	MaxPlayers     *int          `json:"maxPlayers" binding:"omitempty,min=1,max=10000"`
	CurrentPlayers *int          `json:"currentPlayers" binding:"omitempty,min=0"`
	IsOnline       *bool         `json:"isOnline"`
	Verified       *bool         `json:"verified"`
	Theme          *models.Theme `json:"theme" binding:"omitempty"`
}

// ServerThemeResponse is the public theme payload of a listing.
type ServerThemeResponse struct {
	ServerID   uuid.UUID    `json:"serverId"`
	ServerSlug string       `json:"serverSlug"`
	ServerName string       `json:"serverName"`
	Theme      models.Theme `json:"theme"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// BanRequest optionally explains a ban.
type BanRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,max=50"`
}

type IPBanRequest struct {
	IP string `json:"ip" binding:"required,ip"`
}

// UserSummary is a user as listed to administrators.
type UserSummary struct {
	ID            uuid.UUID           `json:"id"`
	Email         string              `json:"email"`
	Username      *string             `json:"username,omitempty"`
	Name          string              `json:"name"`
	AuthProvider  models.AuthProvider `json:"authProvider"`
	IsActive      bool                `json:"isActive"`
	IsBanned      bool                `json:"isBanned"`
	IsAdmin       bool                `json:"isAdmin"`
	EmailVerified bool                `json:"emailVerified"`
	Roles         []string            `json:"roles"`
	LastLogin     *time.Time          `json:"lastLogin,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func NewUserSummary(u *models.User) UserSummary {
	return UserSummary{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Name:          u.Name,
		AuthProvider:  u.AuthProvider,
		IsActive:      u.IsActive,
		IsBanned:      u.IsBanned,
		IsAdmin:       u.IsAdmin,
		EmailVerified: u.EmailVerified,
		Roles:         u.RoleNames(),
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}
