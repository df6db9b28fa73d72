package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"omitempty,max=100"`
	Username string `json:"username" binding:"omitempty,username"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest may be empty when the token travels in the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthUser struct {
	ID           uuid.UUID           `json:"id"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	AuthProvider models.AuthProvider `json:"authProvider"`
}

type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int      `json:"expiresIn"`
	User         AuthUser `json:"user"`
}

func NewAuthUser(u *models.User) AuthUser {
	return AuthUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.DisplayName(),
		AuthProvider: u.AuthProvider,
	}
}

// ProfileResponse is the caller's own account.
type ProfileResponse struct {
	ID            uuid.UUID           `json:"id"`
	Email         string              `json:"email"`
	Username      *string             `json:"username,omitempty"`
	Name          string              `json:"name"`
	AvatarURL     *string             `json:"avatarUrl,omitempty"`
	AuthProvider  models.AuthProvider `json:"authProvider"`
	EmailVerified bool                `json:"emailVerified"`
	IsAdmin       bool                `json:"isAdmin"`
	Roles         []string            `json:"roles"`
	Permissions   []string            `json:"permissions"`
	LastLogin     *time.Time          `json:"lastLogin,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func NewProfileResponse(u *models.User) ProfileResponse {
	var perms []string
	seen := map[string]bool{}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if !seen[p.String()] {
				seen[p.String()] = true
				perms = append(perms, p.String())
			}
		}
	}
	return ProfileResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Name:          u.DisplayName(),
		AvatarURL:     u.AvatarURL,
		AuthProvider:  u.AuthProvider,
		EmailVerified: u.EmailVerified,
		IsAdmin:       u.IsAdmin,
		Roles:         u.RoleNames(),
		Permissions:   perms,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

// OAuthURLResponse carries the provider consent page.
type OAuthURLResponse struct {
	URL string `json:"url"`
}
