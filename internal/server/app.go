// Package server initializes and runs the relay server application.
// It selects and configures the storage backend, starts the HTTP endpoint
// and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/secureclip/internal/logging"
	"github.com/dmitrijs2005/secureclip/internal/server/config"
	"github.com/dmitrijs2005/secureclip/internal/server/httpapi"
	"github.com/dmitrijs2005/secureclip/internal/server/store"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  store.Store
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewDefault()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	return &App{config: cfg, logger: logger, store: st}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config, app.store, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StoreBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
}
