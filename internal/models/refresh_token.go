package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken stores the SHA-256 of an opaque token handed to the client.
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TokenHash string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	Revoked   bool       `gorm:"not null"`
	RevokedAt *time.Time
	UserAgent string `gorm:"type:varchar(500)"`
	IPAddress string `gorm:"type:varchar(64)"`
	CreatedAt time.Time
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
