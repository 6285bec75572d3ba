package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/config"
	"benchbook.org/internal/httpapi"
	"benchbook.org/internal/journal"
	"benchbook.org/internal/migrate"
	"benchbook.org/internal/obs"
	"benchbook.org/internal/store/pg"
)

// Overridden at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "dev"
)

const migrationsDir = "ops/migrations/sql"

func main() {
	if err := run(); err != nil {
		obs.Logger().Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	obs.InitLogging(cfg.LogLevel)
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	ctx := context.Background()

	var (
		authStore    auth.Store
		journalStore journal.Store
		db           *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pgStore, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer pgStore.Close()
		if err := migrate.NewManager(pgStore.DB(), migrationsDir).Up(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		authStore = pgStore
		journalStore = pgStore
		db = pgStore.DB()
		log.Info("storage ready", "backend", "postgres")
	} else {
		authStore = auth.NewMemStore()
		journalStore = journal.NewMemStore()
		log.Warn("no database configured, using the in-memory store; data will not survive a restart")
	}

	tokens, err := auth.NewTokenService(cfg.AuthSecret,
		auth.WithAccessTTL(cfg.TokenTTL),
		auth.WithIssuer(cfg.TokenIssuer),
	)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	log.Info("token service ready", "issuer", cfg.TokenIssuer, "ttl", tokens.TTL())
	resolver := auth.NewDefaultResolver(authStore.Roles())
	accounts, err := auth.NewAccounts(authStore, tokens, resolver)
	if err != nil {
		return err
	}
	registry, err := auth.NewRegistry(authStore)
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(tokens, authStore.Users(), resolver)
	if err != nil {
		return err
	}
	journalSvc, err := journal.NewService(journalStore)
	if err != nil {
		return err
	}

	if err := auth.Bootstrap(ctx, authStore, log); err != nil {
		return fmt.Errorf("bootstrap auth: %w", err)
	}
	if cfg.IsProduction() {
		log.Warn("default administrator account is active, rotate its password",
			"email", auth.BootstrapAdminEmail)
	}

	report, err := registry.Reconcile(ctx, resolver, false)
	if err != nil {
		return fmt.Errorf("reconcile roles: %w", err)
	}
	if len(report.Stale) > 0 {
		log.Warn("accounts reference roles that no longer resolve",
			"count", len(report.Stale))
	}

	api := httpapi.New(httpapi.Deps{
		Accounts:     accounts,
		Registry:     registry,
		Resolver:     resolver,
		Gate:         gate,
		Journal:      journalSvc,
		Ready:        httpapi.ReadyProbe{DB: db},
		Version:      version,
		RateRPS:      cfg.RateRPS,
		RateBurst:    cfg.RateBurst,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("benchbook-api listening",
			"addr", cfg.Addr,
			"version", version,
			"environment", cfg.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	api.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped")
	return nil
}
