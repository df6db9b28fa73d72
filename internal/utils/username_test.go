package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("abc"))
	assert.True(t, IsValidUsername("player_One_2024"))
	assert.True(t, IsValidUsername("a2345678901234567890"))

	assert.False(t, IsValidUsername("ab"), "too short")
	assert.False(t, IsValidUsername("a23456789012345678901"), "too long")
	assert.False(t, IsValidUsername("bad-name"), "hyphen not allowed")
	assert.False(t, IsValidUsername("with space"))
}

func TestUsernameBase(t *testing.T) {
	assert.Equal(t, "john_doe", UsernameBase("John  Doe", "jd@example.com"))
	assert.Equal(t, "jd.smith", UsernameBase("", "jd.smith@example.com"))
	assert.Equal(t, "jd", UsernameBase("   ", "jd@example.com"))
}

func TestSanitizeUsername(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"already valid", "player_one", "player_one"},
		{"invalid chars replaced", "jd.smith", "jd_smith"},
		{"short is padded", "ab", "user_ab"},
		{"empty is padded", "", "user_"},
		{"long is truncated", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeUsername(tc.in)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, len(got), UsernameMinLength)
			assert.LessOrEqual(t, len(got), UsernameMaxLength)
		})
	}
}

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "player", UsernameCandidate("player", 0))
	assert.Equal(t, "player_1", UsernameCandidate("player", 1))
	assert.Equal(t, "player_2", UsernameCandidate("player", 2))

	long := "abcdefghijklmnopqrst"
	assert.Equal(t, "abcdefghijklmnopqr_1", UsernameCandidate(long, 1))
	assert.Equal(t, "abcdefghijklmnopq_10", UsernameCandidate(long, 10))

	for i := 0; i < 200; i++ {
		assert.LessOrEqual(t, len(UsernameCandidate(long, i)), UsernameMaxLength)
	}
}
