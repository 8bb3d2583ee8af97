package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/config"
	"github.com/Veraticus/punchdash/internal/metrics"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

// environment bundles what the backend-facing commands share.
type environment struct {
	store    service.Storage
	recorder metrics.Recorder
	metrics  *metrics.Manager
	client   *backend.Client
	conn     settings.Connection
	app      config.App
}

// setup resolves configuration, opens storage, loads the connection
// settings and builds the backend client.
func setup(ctx context.Context) (*environment, func(), error) {
	app, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, func() {}, err
	}

	store, cleanup := initStorage(ctx, app.DatabasePath)

	conn, err := settings.Load(ctx, store, app.ServerDefaults)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to load settings: %w", err)
	}

	env := &environment{
		app:      app,
		store:    store,
		conn:     conn,
		recorder: metrics.Nop{},
	}
	if app.MetricsAddr != "" {
		env.metrics = metrics.NewManager()
		env.recorder = env.metrics
	}
	env.client = backend.New(conn,
		backend.WithTimeout(app.HTTPTimeout),
		backend.WithRecorder(env.recorder),
	)

	return env, cleanup, nil
}

// initStorage opens the SQLite database. When it cannot be opened the
// commands keep working on an in-memory store for this run only.
func initStorage(ctx context.Context, dbPath string) (service.Storage, func()) {
	store, err := openSQLite(ctx, dbPath)
	if err != nil {
		common.LogError(err, "Local storage unavailable, settings will not persist", common.Fields{"database": dbPath})
		return storage.NewMemoryStorage(), func() {}
	}

	return store, func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close database", "error", closeErr)
		}
	}
}

func openSQLite(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// serveMetrics exposes the Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string, manager *metrics.Manager) {
	router := mux.NewRouter()
	router.Handle("/metrics", manager.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError(err, "Metrics server stopped", common.Fields{"addr": addr})
		}
	}()
}

// startMetrics serves metrics when an address is configured.
func (e *environment) startMetrics(ctx context.Context) {
	if e.metrics != nil {
		serveMetrics(ctx, e.app.MetricsAddr, e.metrics)
	}
}

// withRetry retries transient backend failures of one-shot commands.
func withRetry(ctx context.Context, op func(context.Context) error) error {
	return common.WithRetry(ctx, op, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	})
}
