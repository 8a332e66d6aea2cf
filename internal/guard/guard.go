// Package guard is the edge route guard: for every inbound request it
// decides, before any page code runs, whether to pass through, redirect
// to login, redirect home, or force a logout with cookie clearing.
//
// The guard only decodes the token's payload for an expiry check and
// never verifies its signature; it is a UX optimization, not a security
// boundary. The backend re-authorizes every sensitive operation.
package guard

import (
	"net/http"
	"net/url"
	"time"

	"github.com/avelinek/storegate/internal/cookie"
	"github.com/avelinek/storegate/internal/log"
	"github.com/avelinek/storegate/internal/token"
)

// noStoreValue discourages browsers and proxies from caching
// authenticated content or auth redirects.
const noStoreValue = "no-store, no-cache, must-revalidate, proxy-revalidate"

// clearSiteDataValue asks the browser to drop cached state after a
// forced logout.
const clearSiteDataValue = `"cache", "cookies", "storage"`

// Action is what the guard decided to do with a request.
type Action int

const (
	// ActionAllow passes the request through untouched.
	ActionAllow Action = iota
	// ActionRedirect redirects without touching cookies.
	ActionRedirect
	// ActionForceLogout redirects to login and clears session cookies.
	ActionForceLogout
)

// Decision is the full outcome for one request.
type Decision struct {
	Action   Action
	Location string

	// NoStore marks the response (redirects only) as uncacheable.
	NoStore bool

	// ClearSiteData adds the Clear-Site-Data header on forced logout.
	ClearSiteData bool
}

// SessionRevoker drops the server-side session record for a token. The
// guard revokes on forced logout so the session store never outlives
// the cleared cookie.
type SessionRevoker interface {
	Logout(token string)
}

// Guard evaluates requests against the route classification and the
// advisory token expiry.
type Guard struct {
	classifier *Classifier
	sweeper    cookie.Sweeper
	sessions   SessionRevoker
	now        func() time.Time
}

// New creates a guard. sessions may be nil when no server-side session
// store is in play.
func New(classifier *Classifier, sweeper cookie.Sweeper, sessions SessionRevoker) *Guard {
	return &Guard{
		classifier: classifier,
		sweeper:    sweeper,
		sessions:   sessions,
		now:        time.Now,
	}
}

// Decide runs the state machine for one request. Pure computation: the
// caller applies the decision to the response. Evaluation order matters
// and mirrors the classification precedence:
//
//  1. static paths pass unconditionally
//  2. a present-but-expired (or undecodable) token forces logout,
//     whatever the path class
//  3. admin and user-protected paths without a token redirect to login,
//     preserving the original path
//  4. auth paths with a live token redirect home, except the OAuth
//     callback route
//  5. everything else passes
func (g *Guard) Decide(path, rawToken string) Decision {
	if g.classifier.IsStatic(path) {
		return Decision{Action: ActionAllow}
	}

	// Decode failure is treated as expired: fail closed and make the
	// user re-authenticate rather than let a malformed token through.
	expired := false
	if rawToken != "" {
		claims, err := token.Decode(rawToken)
		expired = err != nil || claims.ExpiredAt(g.now().UnixMilli())
	}

	if rawToken != "" && expired {
		return Decision{
			Action:        ActionForceLogout,
			Location:      "/login?token-expired=true",
			NoStore:       true,
			ClearSiteData: true,
		}
	}

	class := g.classifier.Classify(path)

	if (class == ClassAdmin || class == ClassUserProtected) && rawToken == "" {
		return Decision{
			Action:   ActionRedirect,
			Location: "/login?from=" + url.QueryEscape(path),
			NoStore:  true,
		}
	}

	if class == ClassAuth && rawToken != "" && !g.classifier.IsOAuthCallback(path) {
		return Decision{
			Action:   ActionRedirect,
			Location: "/",
		}
	}

	return Decision{Action: ActionAllow}
}

// Middleware applies the guard to an HTTP handler chain.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := token.FromRequest(r)
		decision := g.Decide(r.URL.Path, rawToken)

		switch decision.Action {
		case ActionAllow:
			next.ServeHTTP(w, r)

		case ActionRedirect:
			if decision.NoStore {
				w.Header().Set("Cache-Control", noStoreValue)
			}
			log.LogDebugWithFields("guard", "Redirecting request", map[string]any{
				"path":     r.URL.Path,
				"location": decision.Location,
			})
			http.Redirect(w, r, decision.Location, http.StatusFound)

		case ActionForceLogout:
			if g.sessions != nil {
				g.sessions.Logout(rawToken)
			}
			g.sweeper.Clear(w, r)
			w.Header().Set("Cache-Control", noStoreValue)
			if decision.ClearSiteData {
				w.Header().Set("Clear-Site-Data", clearSiteDataValue)
			}
			log.LogDebugWithFields("guard", "Forcing logout for expired token", map[string]any{
				"path": r.URL.Path,
			})
			http.Redirect(w, r, decision.Location, http.StatusFound)
		}
	})
}
