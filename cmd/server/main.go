// Federated STAC gateway server entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rkm/fedeo-stac-gateway/internal/api"
	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/resto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting federated STAC gateway",
		"version", cfg.STAC.Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Load product type definitions
	productTypes, err := config.LoadProductTypes(cfg.Federation.ProductTypesDir)
	if err != nil {
		return fmt.Errorf("failed to load product types: %w", err)
	}
	logger.Info("loaded product types", "count", productTypes.Count())

	// Create the gateway and register backend plugins
	gateway := federation.NewGateway(productTypes, logger)
	for name, backendCfg := range cfg.Backends.Active() {
		client := resto.NewClient(backendCfg.BaseURL, backendCfg.Timeout).WithLogger(logger)
		if backendCfg.APIKey != "" {
			client = client.WithAPIKey(backendCfg.APIKey)
		}
		backend := resto.NewBackend(name, client, logger)
		gateway.RegisterPlugin(backend)
		gateway.RegisterDownloader(name, backend)
		logger.Info("registered federation backend", "name", name, "base_url", backendCfg.BaseURL)
	}

	// Pre-fetch externally hosted collection documents
	if cfg.Federation.FetchExternalCollections {
		fetchCtx, cancel := context.WithTimeout(context.Background(), cfg.Federation.ExternalFetchTimeout)
		gateway.FetchExternalCollections(fetchCtx, cfg.Federation.ExternalFetchTimeout)
		cancel()
	}

	// Create handlers and router
	registry := fields.Default()
	handlers := api.NewHandlers(cfg, gateway, registry, logger)
	router := api.NewRouter(handlers, logger)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
