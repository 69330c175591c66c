package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/api"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/config"
	"github.com/fatali-fataliyev/expense_tracker/internal/storage"
	"github.com/fatali-fataliyev/expense_tracker/internal/tracker"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

const (
	probeTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.LogLevel, cfg.AppEnv, cfg.LogDir); err != nil {
		fmt.Println("failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logging.Close()

	logging.Logger.Info("application starting...")

	pool, err := storage.OpenPool(cfg.DB)
	if err != nil {
		logging.Logger.Errorf("failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	probeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	if err := pool.Probe(probeCtx); err != nil {
		logging.Logger.Warn("database is not reachable yet, serving anyway")
	} else if cfg.DB.AutoSchema {
		if err := storage.EnsureSchema(probeCtx, pool); err != nil {
			logging.Logger.Errorf("failed to prepare schema: %v", err)
		}
	}
	cancel()

	storageInstance := storage.NewSQLStorage(pool)
	tr := tracker.NewTracker(storageInstance, auth.NewHasher(cfg.BcryptCost))
	apiInstance := api.NewApi(&tr, cfg.RequireExpenseOwner)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(apiInstance, api.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Infof("starting server on port: %s (storage: %s)", cfg.Port, tr.StorageType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Logger.Infof("received %s, shutting down server...", sig)
	case err := <-serverErr:
		logging.Logger.Errorf("failed to start server: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("server forced to shutdown: %v", err)
	}
	logging.Logger.Info("server stopped")
}
