package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// graphVersion pins the Facebook Graph API version for both the token
// and profile endpoints.
const graphVersion = "v18.0"

// FacebookProvider implements the Provider interface for Facebook Login.
// Facebook's server-side flow omits PKCE; the client secret alone
// authenticates the exchange.
type FacebookProvider struct {
	config     oauth2.Config
	graphURL   string
	apiVersion string
}

// facebookUserResponse represents the Graph API /me response. The
// picture field is nested, unlike Google's flat picture URL.
type facebookUserResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// NewFacebookProvider creates a new Facebook OAuth provider.
func NewFacebookProvider(clientID, clientSecret, redirectURI string) *FacebookProvider {
	return &FacebookProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"public_profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://www.facebook.com/" + graphVersion + "/dialog/oauth",
				TokenURL: "https://graph.facebook.com/" + graphVersion + "/oauth/access_token",
			},
		},
		graphURL:   "https://graph.facebook.com",
		apiVersion: graphVersion,
	}
}

// Type returns the provider type.
func (p *FacebookProvider) Type() string {
	return "facebook"
}

// UsesPKCE reports PKCE participation. Facebook's confidential-client
// flow does not take a verifier.
func (p *FacebookProvider) UsesPKCE() bool {
	return false
}

// AuthCodeURL generates the authorization URL. The verifier is ignored.
func (p *FacebookProvider) AuthCodeURL(state, _ string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange exchanges an authorization code for tokens.
func (p *FacebookProvider) Exchange(ctx context.Context, code, _ string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code, oauth2.AccessTypeOffline)
}

// Profile fetches the user's profile from the Graph API, flattening the
// nested picture.data.url into the normalized avatar field.
func (p *FacebookProvider) Profile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	client := p.config.Client(ctx, token)

	endpoint := fmt.Sprintf("%s/%s/me?fields=%s", p.graphURL, p.apiVersion,
		url.QueryEscape("id,email,name,picture"))
	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user info: status %d", resp.StatusCode)
	}

	var fbUser facebookUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&fbUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &Profile{
		ID:     fbUser.ID,
		Email:  fbUser.Email,
		Name:   fbUser.Name,
		Avatar: fbUser.Picture.Data.URL,
	}, nil
}
