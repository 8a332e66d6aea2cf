package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const supportedVersion = "v1"

// Load reads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if version != supportedVersion {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	resolved, err := resolveEnvRefs(data)
	if err != nil {
		return Config{}, fmt.Errorf("resolving environment references: %w", err)
	}

	var config Config
	if err := json.Unmarshal(resolved, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := applyDefaults(&config); err != nil {
		return Config{}, err
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) error {
	gw := &config.Gateway

	if gw.Addr == "" {
		gw.Addr = ":8080"
	}
	if gw.Storage == "" {
		gw.Storage = StorageMemory
	}

	gw.AttemptTTL = 10 * time.Minute
	if gw.AttemptTTLRaw != "" {
		ttl, err := time.ParseDuration(gw.AttemptTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing attemptTtl: %w", err)
		}
		gw.AttemptTTL = ttl
	}

	gw.SessionTTL = 24 * time.Hour
	if gw.SessionTTLRaw != "" {
		ttl, err := time.ParseDuration(gw.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing sessionTtl: %w", err)
		}
		gw.SessionTTL = ttl
	}

	defaults := DefaultRoutes()
	if gw.Routes.Admin == nil {
		gw.Routes.Admin = defaults.Admin
	}
	if gw.Routes.UserProtected == nil {
		gw.Routes.UserProtected = defaults.UserProtected
	}
	if gw.Routes.Auth == nil {
		gw.Routes.Auth = defaults.Auth
	}
	if gw.Routes.Public == nil {
		gw.Routes.Public = defaults.Public
	}
	if gw.Routes.StaticPrefixes == nil {
		gw.Routes.StaticPrefixes = defaults.StaticPrefixes
	}
	if gw.Routes.OAuthCallbackPrefix == "" {
		gw.Routes.OAuthCallbackPrefix = defaults.OAuthCallbackPrefix
	}

	for name, provider := range gw.Providers {
		if provider.RedirectURI == "" {
			provider.RedirectURI = gw.BaseURL + "/auth/callback/" + name
			gw.Providers[name] = provider
		}
	}

	if gw.Admin != nil && gw.Admin.Enabled {
		password := string(gw.Admin.Password)
		if len(password) > 3 && password[:2] == "$2" {
			// Already a bcrypt hash
			gw.Admin.HashedPassword = []byte(password)
		} else {
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing admin password: %w", err)
			}
			gw.Admin.HashedPassword = hashed
		}
	}

	return nil
}
