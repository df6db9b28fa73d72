package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hynexus/hynexus-api/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGitHubProvider(cfg config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		},
		apiURL: githubAPIURL,
	}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := p.config.Client(ctx, token)

	var ghUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	raw, err := getJSON(client, p.apiURL+"/user", "github", &ghUser)
	if err != nil {
		return nil, err
	}

	// the public profile email is not necessarily verified; ask the emails API
	email, verified, err := p.getPrimaryEmail(client)
	if err != nil {
		if ghUser.Email == "" {
			return nil, err
		}
		email, verified = ghUser.Email, false
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	return &UserInfo{
		ID:            fmt.Sprintf("%d", ghUser.ID),
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		AvatarURL:     ghUser.AvatarURL,
		Provider:      p.Name(),
		Raw:           raw,
	}, nil
}

func (p *GitHubProvider) getPrimaryEmail(client *http.Client) (string, bool, error) {
	resp, err := client.Get(p.apiURL + "/user/emails")
	if err != nil {
		return "", false, fmt.Errorf("failed to get user emails: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("github api returned status %d", resp.StatusCode)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", false, fmt.Errorf("failed to decode emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, false, nil
	}

	return "", false, fmt.Errorf("no email found")
}
