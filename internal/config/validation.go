package config

import (
	"fmt"
	"net/url"
)

// SupportedProviders lists the identity providers the gateway knows how
// to drive.
var SupportedProviders = map[string]bool{
	"google":   true,
	"facebook": true,
}

// ValidateConfig validates a fully-resolved config
func ValidateConfig(config *Config) error {
	gw := &config.Gateway

	if gw.BaseURL == "" {
		return fmt.Errorf("gateway.baseURL is required")
	}
	if _, err := url.Parse(gw.BaseURL); err != nil {
		return fmt.Errorf("gateway.baseURL is not a valid URL: %w", err)
	}

	if gw.APIBaseURL == "" {
		return fmt.Errorf("gateway.apiBaseURL is required")
	}
	if _, err := url.Parse(gw.APIBaseURL); err != nil {
		return fmt.Errorf("gateway.apiBaseURL is not a valid URL: %w", err)
	}

	if len(gw.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	for name, provider := range gw.Providers {
		if !SupportedProviders[name] {
			return fmt.Errorf("unsupported provider: %s", name)
		}
		if provider.ClientID == "" {
			return fmt.Errorf("providers.%s.clientId is required", name)
		}
		if provider.ClientSecret == "" {
			return fmt.Errorf("providers.%s.clientSecret is required", name)
		}
	}

	switch gw.Storage {
	case StorageMemory:
	case StorageBolt:
		if gw.BoltPath == "" {
			return fmt.Errorf("gateway.boltPath is required when storage is %q", StorageBolt)
		}
	default:
		return fmt.Errorf("unsupported storage kind: %s", gw.Storage)
	}

	if gw.Admin != nil && gw.Admin.Enabled {
		if gw.Admin.Username == "" {
			return fmt.Errorf("admin.username is required when admin is enabled")
		}
		if gw.Admin.Password == "" {
			return fmt.Errorf("admin.password is required when admin is enabled")
		}
	}

	return nil
}
