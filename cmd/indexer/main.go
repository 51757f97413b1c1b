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

	githubadapter "github.com/ericfisherdev/spaceport/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/spaceport/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/spaceport/internal/adapter/driving/http"
	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/config"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.LoadIndexer()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"secret_key", cfg.SecretKey != nil,
	)
	if cfg.SecretKey == nil {
		slog.Warn("no secret key configured, credentials cannot be stored")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
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

	// 5. Wire adapters and routes.
	repoStore := sqliteadapter.NewRepoRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	indexStore := sqliteadapter.NewIndexRepo(db)

	// Each credential gets its own authenticated GitHub client during a scan.
	newFetcher := func(token string) driven.ComposeFetcher { return githubadapter.NewClient(token) }
	indexService := application.NewIndexService(repoStore, credentialStore, indexStore, newFetcher, slog.Default())

	apiHandler := httphandler.NewHandler(repoStore, credentialStore, indexService, db, slog.Default())
	router := httphandler.NewRouter(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("indexer started", "listen_addr", cfg.ListenAddr)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
