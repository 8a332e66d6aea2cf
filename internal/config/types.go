package config

import (
	"encoding/json"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StorageKind selects the login-attempt store implementation
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageBolt   StorageKind = "bolt"
)

// ProviderConfig holds OAuth credentials for one identity provider.
// Client secrets must be supplied as {"$env": "VAR"} references; the
// loader rejects inline secret strings.
type ProviderConfig struct {
	ClientID     string `json:"clientId"`
	ClientSecret Secret `json:"clientSecret"`

	// RedirectURI defaults to <baseURL>/auth/callback/<provider>
	RedirectURI string `json:"redirectUri,omitempty"`
}

// AdminConfig enables the basic-auth protected admin endpoints
type AdminConfig struct {
	Enabled  bool   `json:"enabled"`
	Username string `json:"username"`
	Password Secret `json:"password"`

	// HashedPassword is computed at load time. Pre-hashed bcrypt values
	// ($2a$...) in the config are accepted as-is.
	HashedPassword []byte `json:"-"`
}

// RoutesConfig is the static path classification consulted by the guard.
// Matching is by exact equality or "entry/" prefix; the lists are expected
// to be small and non-overlapping by convention.
type RoutesConfig struct {
	Admin         []string `json:"admin,omitempty"`
	UserProtected []string `json:"userProtected,omitempty"`
	Auth          []string `json:"auth,omitempty"`
	Public        []string `json:"public,omitempty"`

	// StaticPrefixes are exempt from the guard entirely
	StaticPrefixes []string `json:"staticPrefixes,omitempty"`

	// OAuthCallbackPrefix is the one auth path an authenticated user may
	// still visit (the provider redirect target)
	OAuthCallbackPrefix string `json:"oauthCallbackPrefix,omitempty"`
}

// GatewayConfig is the main configuration block
type GatewayConfig struct {
	Addr       string `json:"addr"`
	BaseURL    string `json:"baseURL"`
	APIBaseURL string `json:"apiBaseURL"`

	// Upstream is the storefront web tier requests are forwarded to when
	// the guard lets them through. Empty means serve a plain 200 (useful
	// in tests and when the gateway runs as a sidecar).
	Upstream string `json:"upstream,omitempty"`

	Providers map[string]ProviderConfig `json:"providers"`

	Storage  StorageKind `json:"storage,omitempty"`
	BoltPath string      `json:"boltPath,omitempty"`

	// AttemptTTL bounds how long an initiated login may wait for the
	// provider redirect before its stashed verifier is discarded
	AttemptTTLRaw string        `json:"attemptTtl,omitempty"`
	AttemptTTL    time.Duration `json:"-"`

	// SessionTTL is the Max-Age of the issued access_token cookie
	SessionTTLRaw string        `json:"sessionTtl,omitempty"`
	SessionTTL    time.Duration `json:"-"`

	// LegacyCookieSweep re-enables the brute-force path/domain cookie
	// clearing sweep for deployments whose cookies were minted by the
	// previous web tier with unknown attributes
	LegacyCookieSweep bool `json:"legacyCookieSweep,omitempty"`

	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	Admin  *AdminConfig `json:"admin,omitempty"`
	Routes RoutesConfig `json:"routes,omitempty"`
}

// Config is the top-level configuration
type Config struct {
	Version string        `json:"version"`
	Gateway GatewayConfig `json:"gateway"`
}

// DefaultRoutes returns the storefront path classification used when the
// config omits a list.
func DefaultRoutes() RoutesConfig {
	return RoutesConfig{
		Admin:         []string{"/admin"},
		UserProtected: []string{"/account", "/checkout", "/orders", "/wishlist"},
		Auth:          []string{"/login", "/register", "/forgot-password", "/reset-password", "/auth"},
		Public:        []string{"/", "/products", "/categories", "/blog", "/compare", "/flash-sales", "/giveaways"},
		StaticPrefixes: []string{
			"/_next", "/api", "/static", "/images",
		},
		OAuthCallbackPrefix: "/auth/callback",
	}
}
