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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/covecrm/cove/internal/api"
	"github.com/covecrm/cove/internal/apikey"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/config"
	"github.com/covecrm/cove/internal/contact"
	"github.com/covecrm/cove/internal/deal"
	"github.com/covecrm/cove/internal/identity"
	"github.com/covecrm/cove/internal/organization"
	"github.com/covecrm/cove/internal/profile"
	"github.com/covecrm/cove/internal/viewcache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	hashKey, blockKey, err := cfg.CookieKeys()
	if err != nil {
		slog.Error("failed to decode cookie keys", "error", err)
		os.Exit(1)
	}

	provider := identity.NewProvider(cfg.AuthURL, cfg.AuthServiceKey, nil)
	cookies := identity.NewCookieCodec(hashKey, blockKey, cfg.CookieSecure)
	validator := identity.NewValidator(provider, cookies)

	profileRepo := profile.NewRepository(pool)
	keyRepo := apikey.NewRepository(pool)

	deps := api.RouterDeps{
		DBPinger:      pool,
		Version:       cfg.Version,
		Provider:      provider,
		Validator:     validator,
		Keys:          apikey.NewService(keyRepo, profileRepo, cfg.BcryptCost),
		KeyRepo:       keyRepo,
		Profiles:      profileRepo,
		Contacts:      contact.NewRepository(pool),
		Organizations: organization.NewRepository(pool),
		Deals:         deal.NewRepository(pool),
		Views:         viewcache.New(),
		Audit:         audit.NewRecorder(pool),
		PaymentSecret: []byte(cfg.PaymentSecret),
	}
	if cfg.PaymentSecret == "" {
		slog.Warn("PAYMENT_WEBHOOK_SECRET not set; payment webhook endpoint disabled")
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting cove server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
