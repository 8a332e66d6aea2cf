package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelinek/storegate/internal/backend"
	"github.com/avelinek/storegate/internal/config"
	"github.com/avelinek/storegate/internal/cookie"
	"github.com/avelinek/storegate/internal/flow"
	"github.com/avelinek/storegate/internal/guard"
	"github.com/avelinek/storegate/internal/idp"
	"github.com/avelinek/storegate/internal/log"
	"github.com/avelinek/storegate/internal/server"
	"github.com/avelinek/storegate/internal/session"
	"github.com/avelinek/storegate/internal/storage"
	"golang.org/x/sync/errgroup"
)

// janitorInterval controls how often expired login attempts are reaped.
const janitorInterval = time.Minute

// shutdownTimeout bounds the graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// Storegate is the assembled gateway application
type Storegate struct {
	config     config.Config
	httpServer *server.HTTPServer
	store      storage.AttemptStore
	janitor    *storage.Janitor
}

// NewStoregate builds the gateway with all dependencies wired
func NewStoregate(ctx context.Context, cfg config.Config) (*Storegate, error) {
	gw := cfg.Gateway

	log.LogInfoWithFields("storegate", "Building gateway", map[string]any{
		"baseURL":   gw.BaseURL,
		"providers": len(gw.Providers),
		"storage":   string(gw.Storage),
	})

	store, err := setupStorage(gw)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	providers, err := idp.NewProviders(gw.Providers)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to setup providers: %w", err)
	}

	backendClient := backend.NewClient(gw.APIBaseURL)
	flowService := flow.NewService(providers, store, backendClient)

	// Nothing is persisted across restarts, so hydration completes as
	// soon as the store exists; the flag still gates session lookups
	// during assembly.
	sessions := session.NewStore(gw.SessionTTL)
	sessions.Hydrate()

	sweeper := cookie.Sweeper{Legacy: gw.LegacyCookieSweep}
	routeGuard := guard.New(guard.NewClassifier(gw.Routes), sweeper, sessions)

	var upstream *url.URL
	if gw.Upstream != "" {
		upstream, err = url.Parse(gw.Upstream)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid upstream URL: %w", err)
		}
	}

	authHandlers := server.NewAuthHandlers(flowService, sessions, gw.SessionTTL)

	var adminHandlers *server.AdminHandlers
	if gw.Admin != nil && gw.Admin.Enabled {
		adminHandlers = server.NewAdminHandlers(gw.Admin)
	}

	handler := server.NewRouter(authHandlers, adminHandlers, routeGuard, upstream, gw.AllowedOrigins)

	return &Storegate{
		config:     cfg,
		httpServer: server.NewHTTPServer(handler, gw.Addr, shutdownTimeout),
		store:      store,
		janitor:    storage.NewJanitor(store, janitorInterval),
	}, nil
}

func setupStorage(gw config.GatewayConfig) (storage.AttemptStore, error) {
	switch gw.Storage {
	case config.StorageBolt:
		return storage.NewBoltStore(gw.BoltPath, gw.AttemptTTL)
	default:
		return storage.NewMemoryStore(gw.AttemptTTL), nil
	}
}

// Run starts the gateway and blocks until shutdown
func (s *Storegate) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.httpServer.Start()
	})

	group.Go(func() error {
		err := s.janitor.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()
		return s.httpServer.Stop(context.Background())
	})

	err := group.Wait()

	if closeErr := s.store.Close(); closeErr != nil {
		log.LogError("Failed to close attempt store: %v", closeErr)
	}

	return err
}
