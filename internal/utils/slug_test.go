package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation stripped", "Epic Survival Server!", "epic-survival-server"},
		{"runs collapse", "PvP  --  Arena", "pvp-arena"},
		{"leading and trailing", "  ***Hello***  ", "hello"},
		{"digits kept", "Server 42", "server-42"},
		{"non ascii", "Café Ünïcode", "caf-n-code"},
		{"nothing usable", "!!!", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateSlug(tc.in))
		})
	}
}

func TestGenerateSlug_Deterministic(t *testing.T) {
	assert.Equal(t, GenerateSlug("My Server"), GenerateSlug("My Server"))
}
