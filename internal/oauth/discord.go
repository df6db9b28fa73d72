package oauth

import (
	"context"
	"fmt"

	"github.com/hynexus/hynexus-api/internal/config"
	"golang.org/x/oauth2"
)

const discordAPIURL = "https://discord.com/api"

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type DiscordProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewDiscordProvider(cfg config.OAuthConfig) *DiscordProvider {
	return &DiscordProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     discordEndpoint,
		},
		apiURL: discordAPIURL,
	}
}

func (p *DiscordProvider) Name() string {
	return "discord"
}

func (p *DiscordProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *DiscordProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var dUser struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
		Avatar     string `json:"avatar"`
	}
	raw, err := getJSON(p.config.Client(ctx, token), p.apiURL+"/users/@me", "discord", &dUser)
	if err != nil {
		return nil, err
	}
	if dUser.Email == "" {
		return nil, fmt.Errorf("discord account has no email")
	}

	name := dUser.GlobalName
	if name == "" {
		name = dUser.Username
	}

	info := &UserInfo{
		ID:            dUser.ID,
		Email:         dUser.Email,
		EmailVerified: dUser.Verified,
		Name:          name,
		Provider:      p.Name(),
		Raw:           raw,
	}
	if dUser.Avatar != "" {
		info.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", dUser.ID, dUser.Avatar)
	}
	return info, nil
}
