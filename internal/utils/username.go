package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
)

var (
	usernamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	usernameInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	whitespace           = regexp.MustCompile(`\s+`)
)

// IsValidUsername checks the 3-20 chars of [a-zA-Z0-9_] rule.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// UsernameBase derives the raw username seed from a display name, or from the
// local part of email when there is no name.
func UsernameBase(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// SanitizeUsername maps base onto the username alphabet, pads short values
// with a "user_" prefix and caps the length.
func SanitizeUsername(base string) string {
	username := usernameInvalidChars.ReplaceAllString(base, "_")
	if len(username) < UsernameMinLength {
		username = "user_" + username
	}
	if len(username) > UsernameMaxLength {
		username = username[:UsernameMaxLength]
	}
	return username
}

// UsernameCandidate returns the attempt-th disambiguated form of a sanitized
// username: attempt 0 is the username itself, then name_1, name_2, ... each
// truncated so the result stays within the length cap.
func UsernameCandidate(username string, attempt int) string {
	if attempt == 0 {
		return username
	}
	suffix := fmt.Sprintf("_%d", attempt)
	keep := UsernameMaxLength - len(suffix)
	if keep > len(username) {
		keep = len(username)
	}
	return username[:keep] + suffix
}
