package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	ragicadapter "github.com/ericfisherdev/ragicsync/internal/adapter/driven/ragic"
	sqliteadapter "github.com/ericfisherdev/ragicsync/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/ragicsync/internal/adapter/driving/http"
	"github.com/ericfisherdev/ragicsync/internal/application"
	"github.com/ericfisherdev/ragicsync/internal/blindindex"
	"github.com/ericfisherdev/ragicsync/internal/config"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"registry_path", cfg.RegistryPath,
		"base_url", cfg.RagicBaseURL,
		"sync_interval", cfg.SyncInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Load the field-map registry and watch it for edits.
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return err
	}
	go func() {
		if err := reg.Watch(ctx); err != nil {
			slog.Error("registry watch failed", "error", err)
		}
	}()
	slog.Info("registry loaded", "path", cfg.RegistryPath, "forms", reg.FormKeys())

	// 6. Wire the Ragic client and local stores.
	client := ragicadapter.NewClient(cfg.RagicAPIKey, cfg.RagicBaseURL, cfg.HTTPTimeout, slog.Default())
	if latency, err := client.CheckConnection(ctx); err != nil {
		// Sync still retries per request; a failed probe is not fatal.
		slog.Warn("ragic connection probe failed", "base_url", cfg.RagicBaseURL, "error", err)
	} else {
		slog.Info("ragic reachable", "base_url", cfg.RagicBaseURL, "key", client.MaskedKey(), "latency", latency.Round(time.Millisecond))
	}

	userStore := sqliteadapter.NewUserRepo(db)
	accountStore := sqliteadapter.NewAccountRepo(db)
	leaveTypeStore := sqliteadapter.NewLeaveTypeRepo(db)
	hasher := blindindex.New(cfg.IndexKey)

	// 7. Register sync services. Order matters: users first so the account
	// email fallback can consult a warm user cache.
	manager := application.NewSyncManager(cfg.SyncInterval, slog.Default())
	services := []application.Syncer{
		application.NewUserSyncService(client, userStore, reg, hasher, slog.Default()),
		application.NewAccountSyncService(client, accountStore, userStore, reg, hasher, slog.Default()),
		application.NewLeaveTypeSyncService(client, leaveTypeStore, reg, slog.Default()),
	}
	for _, svc := range services {
		if err := manager.Register(svc); err != nil {
			return err
		}
	}
	go manager.Start(ctx)

	// 8. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(manager, cfg.WebhookToken, []byte(cfg.WebhookSecret), client.CheckConnection, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("ragicsync started",
		"listen_addr", cfg.ListenAddr,
		"services", manager.Keys(),
		"sync_interval", cfg.SyncInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight webhooks.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
