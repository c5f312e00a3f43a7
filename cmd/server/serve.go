package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kasirku/kasir/api"
	internalapi "github.com/kasirku/kasir/internal/api"
	"github.com/kasirku/kasir/internal/auth"
	"github.com/kasirku/kasir/internal/config"
	"github.com/kasirku/kasir/internal/contact"
	"github.com/kasirku/kasir/internal/database"
	"github.com/kasirku/kasir/internal/inventory"
	"github.com/kasirku/kasir/internal/message"
	"github.com/kasirku/kasir/internal/note"
	"github.com/kasirku/kasir/internal/observability"
	"github.com/kasirku/kasir/internal/product"
	"github.com/kasirku/kasir/internal/purchase"
	"github.com/kasirku/kasir/internal/report"
	"github.com/kasirku/kasir/internal/sale"
	"github.com/kasirku/kasir/internal/stockwatch"
	"github.com/kasirku/kasir/internal/tenant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabaseURL, database.Up); err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	tracing, err := observability.NewTracerSetup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}

	pool := db.Pool()
	userRepo := auth.NewRepository(pool)
	tenantRepo := tenant.NewRepository(pool)
	productRepo := product.NewRepository(pool)

	authService := auth.NewService(userRepo, auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL), cfg.BcryptCost)
	if _, err := authService.BootstrapGodUser(ctx); err != nil {
		return err
	}

	watcher, err := stockwatch.New(productRepo, cfg.StockScanCron, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		watcher.Start(ctx)
	}()

	router := internalapi.NewRouter(internalapi.RouterDeps{
		DBPinger:    db,
		Version:     cfg.Version,
		OpenAPISpec: api.OpenAPISpec,
		Tracer:      tracing.Tracer(),
		AuthService: authService,
		Users:       userRepo,
		Tenants:     tenantRepo,
		Directory:   tenant.NewDirectory(tenantRepo, cfg.StoreCacheSize, cfg.StoreCacheTTL),
		Products:    productRepo,
		Customers:   contact.NewRepository(pool, contact.Customers),
		Suppliers:   contact.NewRepository(pool, contact.Suppliers),
		Notes:       note.NewRepository(pool),
		Messages:    message.NewRepository(pool),
		Inventory:   inventory.NewRepository(pool),
		Sales:       sale.NewRepository(pool),
		Purchases:   purchase.NewRepository(pool),
		Reports:     report.NewRepository(pool),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting kasir server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		stop()
		<-watcherDone
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-watcherDone

	if err := tracing.Shutdown(shutdownCtx); err != nil {
		slog.Error("flushing traces", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
