package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServerStatus string

const (
	ServerStatusPending   ServerStatus = "pending"
	ServerStatusApproved  ServerStatus = "approved"
	ServerStatusRejected  ServerStatus = "rejected"
	ServerStatusSuspended ServerStatus = "suspended"
)

var (
	ServerCategories = []string{"Survival", "PvP", "Creative", "Minigames", "RPG", "Roleplay", "Anarchy"}
	ServerRegions    = []string{"NA", "EU", "Asia", "Oceania", "SA"}
)

// Server is a directory listing.
type Server struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner          *User        `gorm:"constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Slug           string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name           string       `gorm:"type:varchar(100);not null" json:"name"`
	IPAddress      string       `gorm:"type:varchar(255);not null" json:"ipAddress"`
	Port           int          `gorm:"not null" json:"port"`
	Description    string       `gorm:"type:text;not null" json:"description"`
	WebsiteURL     string       `gorm:"type:varchar(500)" json:"websiteUrl,omitempty"`
	DiscordURL     string       `gorm:"type:varchar(500)" json:"discordUrl,omitempty"`
	BannerURL      string       `gorm:"type:varchar(500)" json:"bannerUrl,omitempty"`
	LogoURL        string       `gorm:"type:varchar(500)" json:"logoUrl,omitempty"`
	Category       string       `gorm:"type:varchar(20);not null;index" json:"category"`
	Region         string       `gorm:"type:varchar(20);not null;index" json:"region"`
	Language       string       `gorm:"type:varchar(10);not null" json:"language"`
	MaxPlayers     int          `gorm:"not null" json:"maxPlayers"`
	CurrentPlayers int          `gorm:"not null" json:"currentPlayers"`
	Status         ServerStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IsOnline       bool         `gorm:"not null" json:"isOnline"`
	LastPing       *time.Time   `json:"lastPing,omitempty"`
	Verified       bool         `gorm:"not null" json:"verified"`
	Featured       bool         `gorm:"not null" json:"featured"`
	Theme          *Theme       `gorm:"type:text" json:"theme,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (s *Server) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
