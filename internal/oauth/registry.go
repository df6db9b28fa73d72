package oauth

import (
	"context"
	"sort"

	"github.com/hynexus/hynexus-api/internal/config"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

// Registry holds the providers that are configured.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// RegistryFromConfig builds every provider with credentials set. An OIDC
// issuer that fails discovery is skipped and logged.
func RegistryFromConfig(ctx context.Context, cfg *config.Config) *Registry {
	var providers []Provider

	if cfg.GitHub.Enabled() {
		providers = append(providers, NewGitHubProvider(cfg.GitHub))
	}
	if cfg.Google.Enabled() {
		providers = append(providers, NewGoogleProvider(cfg.Google))
	}
	if cfg.Discord.Enabled() {
		providers = append(providers, NewDiscordProvider(cfg.Discord))
	}
	if cfg.OIDC.Enabled() {
		p, err := NewOIDCProvider(ctx, cfg.OIDC)
		if err != nil {
			logger.Log.Warn("OIDC provider disabled", zap.String("issuer", cfg.OIDC.IssuerURL), zap.Error(err))
		} else {
			providers = append(providers, p)
		}
	}

	r := NewRegistry(providers...)
	logger.Log.Info("OAuth providers configured", zap.Strings("providers", r.Names()))
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
