package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelinek/storegate/internal/backend"
	"github.com/avelinek/storegate/internal/cookie"
	"github.com/avelinek/storegate/internal/flow"
	jsonwriter "github.com/avelinek/storegate/internal/json"
	"github.com/avelinek/storegate/internal/log"
	"github.com/avelinek/storegate/internal/session"
	"github.com/avelinek/storegate/internal/token"
)

// AuthHandlers provides the OAuth HTTP handlers with dependency injection
type AuthHandlers struct {
	flow       *flow.Service
	sessions   *session.Store
	sessionTTL time.Duration
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(flowService *flow.Service, sessions *session.Store, sessionTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{
		flow:       flowService,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// LoginHandler initiates a login attempt and redirects the browser to
// the provider's consent screen. The optional from parameter is carried
// through the flow so the callback can send the user back.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	returnURL := sanitizeReturnURL(r.URL.Query().Get("from"))

	authURL, err := h.flow.Initiate(r.Context(), provider, returnURL)
	if err != nil {
		if errors.Is(err, flow.ErrUnsupportedProvider) {
			jsonwriter.WriteBadRequest(w, "Unsupported provider: "+provider)
			return
		}
		log.LogError("Failed to initiate %s login: %v", provider, err)
		jsonwriter.WriteInternalServerError(w, "Failed to initiate login")
		return
	}

	// Full navigation away; completion is only observed via the callback
	http.Redirect(w, r, authURL, http.StatusFound)
}

// CallbackHandler is the provider redirect target for the browser-driven
// flow. It consumes the stashed attempt, completes the exchange, sets
// the session cookie, and sends the user back where they started. All
// failures collapse into a single login-page error; the user must
// re-initiate, nothing is retried.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		log.LogWarn("Provider %s returned error: %s (%s)", provider, errCode, query.Get("error_description"))
		h.redirectLoginError(w, r)
		return
	}

	result, returnURL, err := h.flow.Complete(r.Context(), provider, query.Get("code"), query.Get("state"))
	if err != nil {
		log.LogError("Failed to complete %s login: %v", provider, err)
		h.redirectLoginError(w, r)
		return
	}

	h.installSession(w, result)

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusFound)
}

func (h *AuthHandlers) redirectLoginError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?error=oauth-failed", http.StatusFound)
}

// oauthCallbackRequest is the body of the SPA exchange endpoint.
type oauthCallbackRequest struct {
	Provider     string `json:"provider"`
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// oauthCallbackResponse is the success envelope of the exchange endpoint.
type oauthCallbackResponse struct {
	Success bool          `json:"success"`
	User    *backend.User `json:"user"`
	Token   string        `json:"token"`
	Message string        `json:"message"`
}

// OAuthCallbackHandler is the backend-proxy exchange endpoint for SPA
// clients that ran the redirect dance themselves and held on to their
// own code verifier. Validation failures are 400s; every upstream
// failure (provider, network, backend) collapses to a 500 with a single
// message and is never retried.
func (h *AuthHandlers) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var req oauthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid request body")
		return
	}

	if _, ok := h.flow.Provider(req.Provider); !ok {
		jsonwriter.WriteBadRequest(w, "Unsupported provider: "+req.Provider)
		return
	}
	if req.Code == "" {
		jsonwriter.WriteBadRequest(w, "Missing authorization code")
		return
	}

	result, err := h.flow.Exchange(r.Context(), req.Provider, req.Code, req.CodeVerifier)
	if err != nil {
		log.LogError("OAuth exchange failed for %s: %v", req.Provider, err)
		jsonwriter.WriteInternalServerError(w, "OAuth authentication failed: "+err.Error())
		return
	}

	h.installSession(w, result)

	_ = jsonwriter.Write(w, oauthCallbackResponse{
		Success: true,
		User:    result.User,
		Token:   result.Token,
		Message: "Login successful",
	})
}

// sessionResponse is the envelope of the session introspection endpoint.
type sessionResponse struct {
	Hydrated      bool          `json:"hydrated"`
	Authenticated bool          `json:"authenticated"`
	User          *backend.User `json:"user,omitempty"`
}

// SessionHandler reports who the presented token belongs to. Storefront
// clients poll it on startup and hold off auth redirects until hydrated
// is true, which closes the race between first paint and session
// restore.
func (h *AuthHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.HydrationComplete() {
		_ = jsonwriter.Write(w, sessionResponse{})
		return
	}

	raw := token.FromRequest(r)
	if raw == "" {
		_ = jsonwriter.Write(w, sessionResponse{Hydrated: true})
		return
	}

	user, ok := h.sessions.Lookup(raw)
	if !ok {
		_ = jsonwriter.Write(w, sessionResponse{Hydrated: true})
		return
	}

	_ = jsonwriter.Write(w, sessionResponse{
		Hydrated:      true,
		Authenticated: true,
		User:          user,
	})
}

// installSession sets the session cookie and records the session
// server-side in one place so both flows behave identically.
func (h *AuthHandlers) installSession(w http.ResponseWriter, result *flow.Result) {
	cookie.SetSession(w, result.Token, h.sessionTTL)
	h.sessions.Login(result.User, result.Token)
}

// sanitizeReturnURL only accepts same-site absolute paths, so the
// callback can never be used as an open redirect.
func sanitizeReturnURL(from string) string {
	if from == "" {
		return ""
	}
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return ""
	}
	if u, err := url.Parse(from); err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return from
}
