package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/avelinek/storegate/internal/guard"
)

// NewRouter assembles the gateway's HTTP surface. Gateway-owned routes
// are matched first; everything else goes through the route guard and,
// when allowed, on to the storefront upstream.
func NewRouter(auth *AuthHandlers, admin *AdminHandlers, routeGuard *guard.Guard, upstream *url.URL, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/login/{provider}", auth.LoginHandler)
	mux.HandleFunc("GET /auth/callback/{provider}", auth.CallbackHandler)
	mux.HandleFunc("POST /api/auth/oauth-callback", auth.OAuthCallbackHandler)
	mux.HandleFunc("GET /api/auth/session", auth.SessionHandler)
	mux.HandleFunc("GET /healthz", healthHandler)

	if admin != nil {
		mux.HandleFunc("/admin/loglevel", admin.RequireAuth(admin.LogLevelHandler))
	}

	mux.Handle("/", routeGuard.Middleware(upstreamHandler(upstream)))

	return ChainMiddleware(mux,
		NewCORSMiddleware(allowedOrigins),
		NewLoggerMiddleware("http"),
		NewRecoverMiddleware("http"),
	)
}

// healthHandler answers liveness probes.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// upstreamHandler forwards allowed requests to the storefront web tier.
// Without an upstream configured (tests, sidecar deployments behind a
// separate router) it answers 200 so the guard's pass-through decision
// is observable.
func upstreamHandler(upstream *url.URL) http.Handler {
	if upstream == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	return httputil.NewSingleHostReverseProxy(upstream)
}
