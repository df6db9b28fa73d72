package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants
const (
	testSecret          = "test-secret-key-for-jwt-testing"
	testWrongSecret     = "wrong-secret-key-for-jwt-testing"
	testTokenDuration   = 1 * time.Hour
	testExpiredDuration = -1 * time.Hour
)

// createTestUser builds a user holding the given roles, each with the given permissions.
func createTestUser(roles map[string][]string) *models.User {
	user := &models.User{
		ID:    uuid.New(),
		Email: "test@example.com",
	}
	for name, perms := range roles {
		role := models.Role{ID: uuid.New(), Name: name}
		for _, p := range perms {
			resource, action, _ := strings.Cut(p, ":")
			role.Permissions = append(role.Permissions, models.Permission{Resource: resource, Action: action})
		}
		user.Roles = append(user.Roles, role)
	}
	return user
}

func TestGenerateToken_Success(t *testing.T) {
	// Arrange
	user := createTestUser(map[string][]string{"user": {"servers:read"}})

	// Act
	token, err := GenerateToken(user, testSecret, testTokenDuration)

	// Assert
	require.NoError(t, err, "GenerateToken should not return error for valid input")
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have header.payload.signature")
}

func TestGenerateToken_EmbedsRoleSnapshot(t *testing.T) {
	// Arrange
	user := createTestUser(map[string][]string{
		"admin":     {"servers:create", "servers:delete"},
		"moderator": {"servers:update", "servers:create"},
	})

	// Act
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err)
	claims, err := ValidateToken(token, testSecret)

	// Assert
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, user.Email, claims.Email)
	assert.ElementsMatch(t, []string{"admin", "moderator"}, claims.RoleNames())
	assert.ElementsMatch(t, []string{"servers:create", "servers:delete", "servers:update"}, claims.Permissions(),
		"Permissions should be flattened and de-duplicated")
}

func TestGenerateToken_SnapshotIgnoresLaterRoleChanges(t *testing.T) {
	user := createTestUser(map[string][]string{"user": {"servers:read"}})
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err)

	user.Roles[0].Permissions = append(user.Roles[0].Permissions, models.Permission{Resource: "servers", Action: "delete"})

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, []string{"servers:read"}, claims.Permissions())
}

func TestGenerateToken_NoRoles(t *testing.T) {
	user := createTestUser(nil)

	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err)
	claims, err := ValidateToken(token, testSecret)

	require.NoError(t, err)
	assert.Empty(t, claims.Roles)
	assert.Empty(t, claims.Permissions())
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	// Arrange
	user := createTestUser(nil)
	token, err := GenerateToken(user, testSecret, testExpiredDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Act
	claims, err := ValidateToken(token, testSecret)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(createTestUser(nil), testSecret, testTokenDuration)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testWrongSecret)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateToken_TamperedToken(t *testing.T) {
	token, err := GenerateToken(createTestUser(nil), testSecret, testTokenDuration)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = ValidateToken(tampered, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_TableDriven(t *testing.T) {
	valid, err := GenerateToken(createTestUser(nil), testSecret, testTokenDuration)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid token", valid, nil},
		{"empty token", "", ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"single segment", "abc", ErrInvalidToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, testSecret)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
