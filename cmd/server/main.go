package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"mixguard/internal/ai"
	"mixguard/internal/config"
	"mixguard/internal/db"
	"mixguard/internal/db/mock"
	applog "mixguard/internal/log"
	"mixguard/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

// Seams for the lifecycle tests.
var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Initialize
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	database := openDatabase(ctx, cfg)
	if cfg.Database.UseMock && database == nil {
		return 1
	}

	predictor := buildPredictor(ctx, cfg, database)

	srv, err := newServerFunc(server.Config{
		Addr:      cfg.Server.Addr,
		Database:  database,
		Predictor: predictor,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	sigCh, cancelSignals := subscribeShutdownSig()
	defer cancelSignals()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case <-sigCh:
		applog.Info(ctx, "shutdown signal received")
		if err := srv.Stop(); err != nil {
			applog.Error(ctx, "graceful shutdown failed", "error", err)
			return 1
		}
		return 0
	}
}

// openDatabase connects to the configured store. A failed connection is
// logged and the server runs degraded, except with the mock store, where
// a failure is a programming error.
func openDatabase(ctx context.Context, cfg config.Config) *gorm.DB {
	if cfg.Database.UseMock {
		database, err := newMockDatabaseFunc(ctx)
		if err != nil {
			applog.Error(ctx, "failed to initialise mock database", "error", err)
			return nil
		}
		return database
	}

	if cfg.Database.URL == "" {
		applog.Info(ctx, "no database configured, catalog endpoints will degrade")
		return nil
	}

	database, err := configureDatabase(cfg.Database)
	if err != nil {
		applog.Error(ctx, "database unavailable, continuing degraded", "error", err)
		return nil
	}
	if err := db.AutoMigrate(database); err != nil {
		applog.Error(ctx, "schema migration failed, continuing degraded", "error", err)
		return nil
	}
	return database
}

func buildPredictor(ctx context.Context, cfg config.Config, database *gorm.DB) *ai.Predictor {
	if cfg.AI.APIKey == "" {
		applog.Info(ctx, "ai api key not configured, prediction endpoints disabled")
		return nil
	}
	client, err := ai.NewClient(ai.Config{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		applog.Error(ctx, "failed to build ai client, prediction endpoints disabled", "error", err)
		return nil
	}
	return ai.NewPredictor(client, database)
}
