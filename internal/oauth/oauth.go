// Package oauth implements the authorization-code flow against the supported
// identity providers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserInfo is the identity returned by a provider after a code exchange.
type UserInfo struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
	Provider      string
	Raw           map[string]any
}

type Provider interface {
	Name() string
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
}

// GenerateState returns 32 random bytes, URL-safe base64 encoded.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// getJSON decodes the body of an authenticated GET into dest and returns the
// raw object as well.
func getJSON(client *http.Client, url, provider string, dest any) (map[string]any, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s api returned status %d", provider, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	// re-marshal so dest gets typed fields while raw keeps everything
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return raw, nil
}
