// Package main is the entry point for the growthgate server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"growthgate/internal/cache"
	"growthgate/internal/config"
	"growthgate/internal/crm"
	"growthgate/internal/database"
	"growthgate/internal/gate"
	"growthgate/internal/handlers"
	"growthgate/internal/ledger"
	"growthgate/internal/middleware"
	"growthgate/internal/render"
	"growthgate/internal/router"
	"growthgate/internal/storage"
	"growthgate/internal/store"
)

// leadRateLimit caps lead submissions per client IP. Generous for a
// human filling a form, tight for a scripted scraper.
const (
	leadRateLimit  = 10
	leadRateWindow = time.Minute
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Optional .env file for local development.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development content (no-op if content already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (page cache + unlock ledger).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize the HTML template renderer for the public site.
	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	contentStore := store.NewContentStore(db)
	leadStore := store.NewLeadStore(db)

	// Connect to S3-compatible object storage for gated download assets
	// (optional — the gate works without it, downloads are just absent).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3PrivateBucket,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"private_bucket", cfg.S3PrivateBucket,
		)
	} else {
		slog.Warn("s3 storage not configured — gated downloads disabled")
	}

	// CRM webhook forwarding (optional, best-effort).
	forwarder := crm.New(cfg.CRMWebhookURL, cfg.SiteName, nil)
	var crmForwarder gate.Forwarder
	if forwarder.Enabled() {
		crmForwarder = forwarder
		slog.Info("crm forwarding enabled")
	} else {
		slog.Warn("crm webhook not configured — leads stay local")
	}

	// Initialize the page cache (full-page HTML in Valkey). Only public
	// variants are ever stored in it.
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// The unlock ledger is scoped per visitor device; handlers build the
	// per-device view from the request's device cookie.
	ledgerFor := func(device string) ledger.Ledger {
		return ledger.NewValkey(valkeyClient, device)
	}

	// Rate limit lead submissions per client IP.
	leadLimiter := middleware.NewRateLimiter(leadRateLimit, leadRateWindow)
	defer leadLimiter.Stop()

	// In non-development environments, mark the device cookie as
	// Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(contentStore, leadStore, renderer, pageCache, storageClient, crmForwarder, ledgerFor, cfg.SiteName)
	apiHandlers := handlers.NewAPI(contentStore, leadStore, storageClient, crmForwarder, ledgerFor)
	operatorHandlers := handlers.NewOperator(leadStore, contentStore, pageCache, storageClient)

	// Set up the Chi router with all middleware and routes.
	r := router.New(publicHandlers, apiHandlers, operatorHandlers, leadLimiter, secureCookies)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight CRM forwards finish before exiting.
	forwarder.Wait()

	slog.Info("server stopped gracefully")
}
