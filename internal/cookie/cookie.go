// Package cookie issues and clears the storefront session cookies.
//
// The gateway records exactly which path/domain variants it uses when
// setting a cookie, so a forced logout clears those and only those. The
// old web tier used to clear a Cartesian product of path and domain
// variants because nobody knew how its cookies had been set; that sweep
// survives behind Sweeper.Legacy for deployments still carrying such
// cookies.
package cookie

import (
	"net"
	"net/http"
	"time"

	"github.com/avelinek/storegate/internal/envutil"
	"github.com/avelinek/storegate/internal/log"
	"github.com/avelinek/storegate/internal/token"
)

// SessionNames are the cookie names touched on logout. Only
// access_token is ever issued by the gateway; auth_token and
// refresh_token are legacy names cleared for hygiene.
var SessionNames = []string{
	token.AccessTokenCookie,
	token.AuthTokenCookie,
	token.RefreshTokenCookie,
}

// Issuance records the attributes a cookie was set with.
type Issuance struct {
	Name   string
	Path   string
	Domain string
}

// SessionIssuances enumerates every variant the gateway issues (or has
// historically issued) for session cookies: all names at Path=/ with no
// Domain attribute.
func SessionIssuances() []Issuance {
	issuances := make([]Issuance, 0, len(SessionNames))
	for _, name := range SessionNames {
		issuances = append(issuances, Issuance{Name: name, Path: "/"})
	}
	return issuances
}

// SetSession sets the access_token cookie with the security attributes
// the storefront requires. Secure is relaxed only in development.
func SetSession(w http.ResponseWriter, value string, maxAge time.Duration) {
	secure := !envutil.IsDev()
	http.SetCookie(w, &http.Cookie{
		Name:     token.AccessTokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogTraceWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge":   maxAge.String(),
		"secure":   secure,
		"sameSite": "Lax",
	})
}

// Sweeper clears session cookies on forced logout.
type Sweeper struct {
	// Legacy enables the brute-force path/domain sweep in addition to
	// the recorded issuances.
	Legacy bool
}

// Clear expires every recorded session cookie variant. With Legacy set
// it additionally sweeps the Cartesian product of path variants
// ("/", the request path, unset) and domain variants (unset, the
// request hostname), since legacy cookies with unknown attributes are
// not otherwise reliably deletable.
func (s Sweeper) Clear(w http.ResponseWriter, r *http.Request) {
	for _, issuance := range SessionIssuances() {
		expire(w, issuance.Name, issuance.Path, issuance.Domain)
	}

	if !s.Legacy {
		return
	}

	paths := []string{"/", r.URL.Path, ""}
	domains := []string{"", stripPort(r.Host)}
	for _, name := range SessionNames {
		for _, path := range paths {
			for _, domain := range domains {
				expire(w, name, path, domain)
			}
		}
	}
}

func stripPort(host string) string {
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func expire(w http.ResponseWriter, name, path, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    path,
		Domain:  domain,
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}
