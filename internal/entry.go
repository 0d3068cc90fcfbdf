// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wunjo/internal/annotator"
	"github.com/starford/wunjo/internal/api"
	"github.com/starford/wunjo/internal/exifmeta"
	"github.com/starford/wunjo/internal/geocode"
	"github.com/starford/wunjo/internal/index"
	"github.com/starford/wunjo/internal/mediainfo"
	"github.com/starford/wunjo/internal/mcpserver"
	"github.com/starford/wunjo/internal/sse"
	"github.com/starford/wunjo/internal/timestamp"
)

// buildAnnotator wires the annotation service from the configuration.
// The caller owns the returned index handle and the service.
func buildAnnotator(cfg *Config, logger *slog.Logger, broker *sse.Broker) (*annotator.Service, *index.DB, error) {
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	var geo annotator.Geocoder
	if cfg.Geocoder.Enabled {
		geo = geocode.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout())
	}

	resolver := timestamp.New(exifmeta.Reader{}, logger)
	prober := mediainfo.New(cfg.Probe.FFprobePath, cfg.Probe.Timeout())
	svc := annotator.NewService(resolver, db, broker, exifmeta.Reader{}, geo, prober, logger)
	return svc, db, nil
}

// openConfiguredLibrary opens a session on the configured root, if any.
// Failure is logged, not fatal: a client can open a folder over the API.
func openConfiguredLibrary(ctx context.Context, cfg *Config, svc *annotator.Service, logger *slog.Logger) {
	if cfg.Library.Root == "" {
		return
	}
	info, err := svc.OpenSession(ctx, cfg.Library.Root)
	if err != nil {
		logger.Warn("could not open configured library",
			slog.String("root", cfg.Library.Root),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("library opened",
		slog.String("root", cfg.Library.Root),
		slog.Int("files", info.Files))
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_root", cfg.Library.Root),
		slog.String("index_path", cfg.Index.Path),
		slog.Bool("geocoder_enabled", cfg.Geocoder.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, db, err := buildAnnotator(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer db.Close()
	defer svc.Close()

	openConfiguredLibrary(ctx, cfg, svc, logger)

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Media bytes for the viewer. <img>/<video> tags cannot attach a
	// Bearer header, so this stays outside auth; only working-list
	// paths resolve.
	r.Get("/files/*", api.NewMediaHandler(svc).ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the annotation tools over stdio for MCP clients.
// Stdout carries the protocol, so logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.Library.Root == "" {
		return fmt.Errorf("mcp mode requires library.root to be set")
	}

	svc, db, err := buildAnnotator(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer db.Close()
	defer svc.Close()

	info, err := svc.OpenSession(context.Background(), cfg.Library.Root)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	logger.Info("MCP server starting on stdio",
		slog.String("root", cfg.Library.Root),
		slog.Int("files", info.Files))

	return mcpserver.New(svc).ServeStdio()
}
