package idp

import (
	"fmt"

	"github.com/avelinek/storegate/internal/config"
)

// NewProvider creates a Provider from its config entry.
func NewProvider(name string, cfg config.ProviderConfig) (Provider, error) {
	switch name {
	case "google":
		return NewGoogleProvider(
			cfg.ClientID,
			string(cfg.ClientSecret),
			cfg.RedirectURI,
		), nil

	case "facebook":
		return NewFacebookProvider(
			cfg.ClientID,
			string(cfg.ClientSecret),
			cfg.RedirectURI,
		), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", name)
	}
}

// NewProviders builds the provider table from config.
func NewProviders(configs map[string]config.ProviderConfig) (map[string]Provider, error) {
	providers := make(map[string]Provider, len(configs))
	for name, cfg := range configs {
		provider, err := NewProvider(name, cfg)
		if err != nil {
			return nil, err
		}
		providers[name] = provider
	}
	return providers, nil
}
