package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants
const (
	testPassword        = "SecurePassword123!"
	testWrongPassword   = "WrongPassword456!"
	testSpecialPassword = "P@ssw0rd!#$%"
)

func TestHashPassword_Success(t *testing.T) {
	// Arrange
	password := testPassword

	// Act
	hash, err := HashPassword(password)

	// Assert
	require.NoError(t, err, "HashPassword should not return error for valid password")
	assert.NotEqual(t, password, hash, "Hash should be different from password")
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"), "Hash should be bcrypt with cost 10, got %s", hash)
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword(testPassword)
	require.NoError(t, err)
	second, err := HashPassword(testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "Same password should produce different hashes")
}

func TestVerifyPassword_Correct(t *testing.T) {
	// Arrange
	hash, err := HashPassword(testPassword)
	require.NoError(t, err, "Setup: HashPassword should not fail")

	// Act
	match, err := VerifyPassword(testPassword, hash)

	// Assert
	require.NoError(t, err, "VerifyPassword should not return error")
	assert.True(t, match, "Password should match its hash")
}

func TestVerifyPassword_Incorrect(t *testing.T) {
	// Arrange
	hash, err := HashPassword(testPassword)
	require.NoError(t, err, "Setup: HashPassword should not fail")

	// Act
	match, err := VerifyPassword(testWrongPassword, hash)

	// Assert
	require.NoError(t, err, "A mismatch is not an error")
	assert.False(t, match, "Wrong password should not match hash")
}

func TestVerifyPassword_SpecialCharacters(t *testing.T) {
	hash, err := HashPassword(testSpecialPassword)
	require.NoError(t, err)

	match, err := VerifyPassword(testSpecialPassword, hash)

	require.NoError(t, err)
	assert.True(t, match)
}

func TestHashPassword_LengthLimit(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes))
	require.NoError(t, err, "A password of exactly MaxPasswordBytes should hash")

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.Error(t, err, "bcrypt refuses longer input")
}

func TestVerifyPassword_OverlongNeverMatches(t *testing.T) {
	hash, err := HashPassword(strings.Repeat("a", MaxPasswordBytes))
	require.NoError(t, err)

	match, err := VerifyPassword(strings.Repeat("a", MaxPasswordBytes+1), hash)

	require.NoError(t, err, "An overlong password is a mismatch, not an error")
	assert.False(t, match)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	match, err := VerifyPassword(testPassword, "not-a-bcrypt-hash")

	assert.Error(t, err, "Malformed hash should be reported")
	assert.False(t, match)
}

func TestBurnPasswordCheck_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		BurnPasswordCheck(testPassword)
		BurnPasswordCheck("")
	})
}
