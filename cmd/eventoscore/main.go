// Eventos Core - Identity and Access Control Service
//
// This is the main entry point for the Eventos Core application: credential
// management, access token issuance, role-based authorisation, and an
// append-only audit trail behind a small REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/sernajr/eventos-core/migrations"

	"github.com/sernajr/eventos-core/internal/api"
	"github.com/sernajr/eventos-core/internal/audit"
	"github.com/sernajr/eventos-core/internal/identity"
	"github.com/sernajr/eventos-core/internal/infrastructure/config"
	"github.com/sernajr/eventos-core/internal/infrastructure/database"
	"github.com/sernajr/eventos-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Eventos Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Wire the identity stack
	identRepo := identity.NewRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	recorder := audit.NewRecorder(auditRepo, log)
	recorder.Start()
	defer func() {
		log.Info("flushing audit recorder")
		recorder.Close()
	}()

	tokens := identity.NewTokenManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.Issuer,
		cfg.GetAccessTokenTTL(),
	)
	identService := identity.NewService(identRepo, tokens, recorder, log)

	// Seed the first admin account on a fresh database
	if _, seedErr := identity.SeedAdmin(ctx, identRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Identity: identService,
		Tokens:   tokens,
		AuditLog: auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Verify connections are healthy before declaring readiness
	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Audit recorder
	// 3. Database

	log.Info("Eventos Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses EVENTOS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("EVENTOS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheckTimeout bounds the startup health probe.
const healthCheckTimeout = 5 * time.Second

// healthCheck verifies infrastructure components are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
