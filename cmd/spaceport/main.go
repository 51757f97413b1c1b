package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata" // Display time zones on scratch images

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/spaceport/internal/adapter/driven/github"
	"github.com/ericfisherdev/spaceport/internal/adapter/driven/gitremote"
	"github.com/ericfisherdev/spaceport/internal/adapter/driven/indexer"
	httphandler "github.com/ericfisherdev/spaceport/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/spaceport/internal/adapter/driving/web"
	"github.com/ericfisherdev/spaceport/internal/application"
	"github.com/ericfisherdev/spaceport/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"api_base", cfg.APIBase,
		"request_timeout", cfg.RequestTimeout,
		"display_timezone", cfg.DisplayTimezone.String(),
		"view_ttl", cfg.ViewTTL,
		"validate_edits", cfg.ValidateEdits,
		"github_token", cfg.HasGitHubToken(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire driven adapters.
	indexerClient, err := indexer.NewClient(cfg.APIBase, cfg.RequestTimeout, slog.Default())
	if err != nil {
		return err
	}
	probe := application.NewProbeService(
		gitremote.NewInspector(slog.Default()),
		githubadapter.NewClient(cfg.GitHubToken),
		slog.Default(),
	)

	// 4. Start the view registry janitor.
	views := application.NewViewRegistry(indexerClient, slog.Default(), application.ViewOptions{
		TTL:           cfg.ViewTTL,
		ValidateEdits: cfg.ValidateEdits,
	})
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		views.Run(ctx)
	}()

	// 5. Create web handler and register GUI routes.
	webHandler, err := webhandler.NewHandler(views, probe, indexerClient, cfg.DisplayTimezone, slog.Default())
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Change streams end with the signal context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("spaceport started", "listen_addr", cfg.ListenAddr, "api_base", cfg.APIBase)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	<-janitorDone

	slog.Info("shutdown complete")
	return nil
}
