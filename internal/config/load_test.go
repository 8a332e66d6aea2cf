package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"version": "v1",
	"gateway": {
		"baseURL": "https://shop.example.com",
		"apiBaseURL": "https://api.shop.example.com",
		"providers": {
			"google": {
				"clientId": "google-client-id",
				"clientSecret": {"$env": "TEST_GOOGLE_SECRET"}
			}
		}
	}
}`

func TestLoad(t *testing.T) {
	t.Run("resolves env refs and applies defaults", func(t *testing.T) {
		t.Setenv("TEST_GOOGLE_SECRET", "s3cret")
		cfg, err := Load(writeConfig(t, minimalConfig))
		require.NoError(t, err)

		gw := cfg.Gateway
		assert.Equal(t, ":8080", gw.Addr)
		assert.Equal(t, StorageMemory, gw.Storage)
		assert.Equal(t, 10*time.Minute, gw.AttemptTTL)
		assert.Equal(t, 24*time.Hour, gw.SessionTTL)
		assert.Equal(t, Secret("s3cret"), gw.Providers["google"].ClientSecret)
		assert.Equal(t, "https://shop.example.com/auth/callback/google", gw.Providers["google"].RedirectURI)
		assert.Equal(t, DefaultRoutes(), gw.Routes)
	})

	t.Run("unset env var fails at load", func(t *testing.T) {
		os.Unsetenv("TEST_GOOGLE_SECRET")
		_, err := Load(writeConfig(t, minimalConfig))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEST_GOOGLE_SECRET")
	})

	t.Run("inline client secret is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{
			"version": "v1",
			"gateway": {
				"baseURL": "https://shop.example.com",
				"apiBaseURL": "https://api.shop.example.com",
				"providers": {
					"google": {"clientId": "id", "clientSecret": "plaintext"}
				}
			}
		}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "environment variable reference")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"gateway": {}}`))
		assert.ErrorContains(t, err, "version")
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, err := Load(writeConfig(t, `{"version": "v2", "gateway": {}}`))
		assert.ErrorContains(t, err, "unsupported config version")
	})

	t.Run("custom ttls and routes survive", func(t *testing.T) {
		t.Setenv("TEST_GOOGLE_SECRET", "s3cret")
		cfg, err := Load(writeConfig(t, `{
			"version": "v1",
			"gateway": {
				"baseURL": "https://shop.example.com",
				"apiBaseURL": "https://api.shop.example.com",
				"attemptTtl": "5m",
				"sessionTtl": "1h",
				"providers": {
					"google": {
						"clientId": "id",
						"clientSecret": {"$env": "TEST_GOOGLE_SECRET"},
						"redirectUri": "https://other.example.com/cb"
					}
				},
				"routes": {"admin": ["/backoffice"]}
			}
		}`))
		require.NoError(t, err)

		gw := cfg.Gateway
		assert.Equal(t, 5*time.Minute, gw.AttemptTTL)
		assert.Equal(t, time.Hour, gw.SessionTTL)
		assert.Equal(t, "https://other.example.com/cb", gw.Providers["google"].RedirectURI)
		assert.Equal(t, []string{"/backoffice"}, gw.Routes.Admin)
		// Omitted lists still get defaults
		assert.Equal(t, DefaultRoutes().Auth, gw.Routes.Auth)
	})

	t.Run("admin password is hashed at load", func(t *testing.T) {
		t.Setenv("TEST_GOOGLE_SECRET", "s3cret")
		t.Setenv("TEST_ADMIN_PASSWORD", "letmein")
		cfg, err := Load(writeConfig(t, `{
			"version": "v1",
			"gateway": {
				"baseURL": "https://shop.example.com",
				"apiBaseURL": "https://api.shop.example.com",
				"providers": {
					"google": {"clientId": "id", "clientSecret": {"$env": "TEST_GOOGLE_SECRET"}}
				},
				"admin": {
					"enabled": true,
					"username": "ops",
					"password": {"$env": "TEST_ADMIN_PASSWORD"}
				}
			}
		}`))
		require.NoError(t, err)

		require.NotNil(t, cfg.Gateway.Admin)
		assert.NoError(t, bcrypt.CompareHashAndPassword(cfg.Gateway.Admin.HashedPassword, []byte("letmein")))
	})

	t.Run("pre-hashed admin password is kept as-is", func(t *testing.T) {
		t.Setenv("TEST_GOOGLE_SECRET", "s3cret")
		hashed, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
		require.NoError(t, err)
		t.Setenv("TEST_ADMIN_PASSWORD", string(hashed))

		cfg, err := Load(writeConfig(t, `{
			"version": "v1",
			"gateway": {
				"baseURL": "https://shop.example.com",
				"apiBaseURL": "https://api.shop.example.com",
				"providers": {
					"google": {"clientId": "id", "clientSecret": {"$env": "TEST_GOOGLE_SECRET"}}
				},
				"admin": {
					"enabled": true,
					"username": "ops",
					"password": {"$env": "TEST_ADMIN_PASSWORD"}
				}
			}
		}`))
		require.NoError(t, err)
		assert.Equal(t, hashed, cfg.Gateway.Admin.HashedPassword)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Version: "v1",
			Gateway: GatewayConfig{
				BaseURL:    "https://shop.example.com",
				APIBaseURL: "https://api.shop.example.com",
				Storage:    StorageMemory,
				Providers: map[string]ProviderConfig{
					"google": {ClientID: "id", ClientSecret: "secret"},
				},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing baseURL", func(c *Config) { c.Gateway.BaseURL = "" }, "baseURL"},
		{"missing apiBaseURL", func(c *Config) { c.Gateway.APIBaseURL = "" }, "apiBaseURL"},
		{"no providers", func(c *Config) { c.Gateway.Providers = nil }, "at least one provider"},
		{"unknown provider", func(c *Config) {
			c.Gateway.Providers["twitter"] = ProviderConfig{ClientID: "id", ClientSecret: "s"}
		}, "unsupported provider"},
		{"missing client id", func(c *Config) {
			c.Gateway.Providers["google"] = ProviderConfig{ClientSecret: "s"}
		}, "clientId"},
		{"bolt without path", func(c *Config) { c.Gateway.Storage = StorageBolt }, "boltPath"},
		{"unknown storage", func(c *Config) { c.Gateway.Storage = "redis" }, "storage"},
		{"admin without username", func(c *Config) {
			c.Gateway.Admin = &AdminConfig{Enabled: true, Password: "p"}
		}, "admin.username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	assert.Equal(t, "***", Secret("hunter2").String())
	assert.Equal(t, "", Secret("").String())

	out, err := json.Marshal(struct {
		Token Secret `json:"token"`
	}{Token: "hunter2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token": "***"}`, string(out))

	// Secrets still round-trip in, just never out
	var parsed struct {
		Token Secret `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"token": "hunter2"}`), &parsed))
	assert.Equal(t, Secret("hunter2"), parsed.Token)

	redacted := fmt.Sprintf("provider secret: %s", Secret("hunter2"))
	assert.NotContains(t, redacted, "hunter2")
}
