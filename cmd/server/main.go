// Cart promo service: cart transform, inventory reconciliation webhooks and
// saved products for a single Shopify shop.
package main

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

	"github.com/joho/godotenv"

	"cartpromo/internal/carttransform"
	"cartpromo/internal/config"
	"cartpromo/internal/handler"
	"cartpromo/internal/middleware"
	"cartpromo/internal/reconcile"
	"cartpromo/internal/savedproduct"
	"cartpromo/internal/shopify"
	"cartpromo/internal/store"
	"cartpromo/internal/transport"
)

const shopifyTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional and never overrides the real environment.
	if os.Getenv("ENVIRONMENT") != "production" {
		_ = godotenv.Load()
	}

	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("shop_id", cfg.ShopID),
		slog.String("environment", cfg.Environment),
		slog.String("shop_domain", cfg.Shopify.ShopDomain),
		slog.String("api_version", cfg.Shopify.APIVersion),
		slog.String("database_driver", cfg.Database.Driver),
	)

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	httpClient, err := transport.NewClient(transport.Options{
		Kind:      transport.Kind(cfg.Shopify.Transport),
		Timeout:   shopifyTimeout,
		PerSecond: cfg.Shopify.RateLimit,
		Burst:     1,
	})
	if err != nil {
		return fmt.Errorf("creating http client: %w", err)
	}

	shopifyClient, err := shopify.New(shopify.Config{
		ShopDomain:  cfg.Shopify.ShopDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Namespace:   cfg.Shopify.MetafieldNamespace,
		Timeout:     shopifyTimeout,
	}, httpClient)
	if err != nil {
		return fmt.Errorf("creating shopify client: %w", err)
	}

	engine, err := carttransform.New(cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("creating cart transform engine: %w", err)
	}

	h := handler.New(handler.Deps{
		Engine:        engine,
		Reconciler:    reconcile.NewHandler(db, db, shopifyClient, logger),
		SavedProducts: savedproduct.NewService(db, shopifyClient, logger),
		WebhookSecret: []byte(cfg.Shopify.APISecret),
		APIVersion:    cfg.Shopify.APIVersion,
	}, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding webhook writes time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
