package server

import (
	"encoding/json"
	"net/http"

	"github.com/avelinek/storegate/internal/config"
	jsonwriter "github.com/avelinek/storegate/internal/json"
	"github.com/avelinek/storegate/internal/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandlers serves the operator endpoints, protected by basic auth.
type AdminHandlers struct {
	cfg *config.AdminConfig
}

// NewAdminHandlers creates admin handlers.
func NewAdminHandlers(cfg *config.AdminConfig) *AdminHandlers {
	return &AdminHandlers{cfg: cfg}
}

// RequireAuth wraps a handler with basic-auth enforcement against the
// configured operator credentials.
func (h *AdminHandlers) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != h.cfg.Username ||
			bcrypt.CompareHashAndPassword(h.cfg.HashedPassword, []byte(password)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="storegate"`)
			jsonwriter.WriteUnauthorized(w, "Unauthorized")
			return
		}
		next(w, r)
	}
}

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	Level string `json:"level"`
}

// LogLevelHandler reads (GET) or updates (PUT) the runtime log level.
func (h *AdminHandlers) LogLevelHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_ = jsonwriter.Write(w, logLevelResponse{Level: log.GetLogLevel()})

	case http.MethodPut:
		var req logLevelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonwriter.WriteBadRequest(w, "Invalid request body")
			return
		}
		if err := log.SetLogLevel(req.Level); err != nil {
			jsonwriter.WriteBadRequest(w, err.Error())
			return
		}
		_ = jsonwriter.Write(w, logLevelResponse{Level: log.GetLogLevel()})

	default:
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
	}
}
