package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avelinek/storegate/internal/log"
)

// readHeaderTimeout bounds how long a client may dribble request
// headers before the connection is dropped.
const readHeaderTimeout = 10 * time.Second

// HTTPServer wraps the stdlib server with the gateway's lifecycle:
// logged start, graceful drain bounded by the configured timeout.
type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPServer creates the gateway's HTTP server.
func NewHTTPServer(handler http.Handler, addr string, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Start serves until Stop is called. A server closed by Stop is a clean
// exit, not an error.
func (h *HTTPServer) Start() error {
	log.LogInfoWithFields("http", "HTTP server listening", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests, giving up once the shutdown timeout
// elapses.
func (h *HTTPServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.shutdownTimeout)
	defer cancel()

	log.LogInfoWithFields("http", "HTTP server draining", map[string]any{
		"addr":    h.server.Addr,
		"timeout": h.shutdownTimeout.String(),
	})

	if err := h.server.Shutdown(ctx); err != nil {
		return err
	}

	log.LogInfoWithFields("http", "HTTP server stopped", map[string]any{
		"addr": h.server.Addr,
	})
	return nil
}
