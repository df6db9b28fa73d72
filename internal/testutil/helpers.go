package testutil

import (
	"testing"

	"github.com/google/uuid"
)

// ParseUUID parses a UUID string and fails the test if invalid.
// Handy for ids read back from JSON responses.
func ParseUUID(t *testing.T, uuidStr string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(uuidStr)
	if err != nil {
		t.Fatalf("Invalid UUID string: %s, error: %v", uuidStr, err)
	}
	return id
}
