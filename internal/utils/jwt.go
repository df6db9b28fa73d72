package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type PermissionClaim struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (p PermissionClaim) String() string {
	return p.Resource + ":" + p.Action
}

type RoleClaim struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Permissions []PermissionClaim `json:"permissions"`
}

// Claims is the access token payload. Roles and permissions are a snapshot
// taken at issuance and stay fixed until the token expires.
type Claims struct {
	Email string      `json:"email"`
	Roles []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *Claims) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Permissions flattens every role's permissions into "resource:action" strings.
func (c *Claims) Permissions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range c.Roles {
		for _, p := range r.Permissions {
			key := p.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}

// GenerateToken signs an access token for user. user.Roles must be loaded
// with their permissions.
func GenerateToken(user *models.User, secret string, expiresIn time.Duration) (string, error) {
	roles := make([]RoleClaim, 0, len(user.Roles))
	for _, r := range user.Roles {
		perms := make([]PermissionClaim, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, PermissionClaim{Resource: p.Resource, Action: p.Action})
		}
		roles = append(roles, RoleClaim{ID: r.ID, Name: r.Name, Permissions: perms})
	}

	now := time.Now()
	claims := Claims{
		Email: user.Email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
