// Package backend talks to the storefront's REST backend. The backend
// owns all business logic and is the only party that mints session
// tokens; the gateway just relays the provider identity to it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avelinek/storegate/internal/idp"
)

// User is the storefront user record returned by the backend.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Client calls the storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type oauthSyncRequest struct {
	Provider    string       `json:"provider"`
	Profile     *idp.Profile `json:"profile"`
	AccessToken string       `json:"accessToken"`
}

type oauthSyncResponse struct {
	User    *User  `json:"user"`
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// SyncOAuthUser forwards a normalized provider profile plus the raw
// provider access token to the backend's user-sync endpoint. The backend
// upserts the user and returns the application's own session token.
func (c *Client) SyncOAuthUser(ctx context.Context, provider string, profile *idp.Profile, accessToken string) (*User, string, error) {
	body, err := json.Marshal(oauthSyncRequest{
		Provider:    provider,
		Profile:     profile,
		AccessToken: accessToken,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshaling sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/oauth-sync", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("building sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("backend sync failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody oauthSyncResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Message != "" {
			return nil, "", fmt.Errorf("backend sync failed: status %d: %s", resp.StatusCode, errBody.Message)
		}
		return nil, "", fmt.Errorf("backend sync failed: status %d", resp.StatusCode)
	}

	var syncResp oauthSyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&syncResp); err != nil {
		return nil, "", fmt.Errorf("decoding sync response: %w", err)
	}
	if syncResp.User == nil || syncResp.Token == "" {
		return nil, "", fmt.Errorf("backend sync returned incomplete session")
	}

	return syncResp.User, syncResp.Token, nil
}
