package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsproviders "github.com/SscSPs/payment_ledger_app/internal/core/ports/providers"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/handlers"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/SscSPs/payment_ledger_app/internal/notifications"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/SscSPs/payment_ledger_app/internal/providers"
	"github.com/SscSPs/payment_ledger_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/payment_ledger_app/internal/utils"
	"github.com/SscSPs/payment_ledger_app/pkg/database"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Payment Ledger API
// @version 1.0
// @description Transaction ledger and payment orchestration backend.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API token issued by this service, format pla_<id>.<secret>.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger) // Optional: Set as default logger

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	// Defer closing the connection pool
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	// --- Run Database Migrations ---
	logger.Info("Running database migrations...")
	// Open a temporary standard sql.DB connection for migrations
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	// Create a postgres driver instance for migrate
	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Point to the migrations directory (adjust path if needed)
	migrationsPath := "file://migrations"

	// Create a new migrate instance
	m, err := migrate.NewWithDatabaseInstance(
		migrationsPath,
		"postgres", // Database name used by migrate
		driver,
	)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Apply all available "up" migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Check for dirty migrations after running Up.
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		os.Exit(1)
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		os.Exit(1)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	// --- End Database Migrations ---

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	// Wire repositories, payment providers and the notifier into the services
	repos := pgsql.NewRepositoryProvider(dbPool)

	manualProvider := providers.NewManualProvider(repos.PaymentRecordRepo, cfg.ManualPaymentInstructions)
	providerRegistry := portsproviders.Registry{
		providers.ManualProviderName: manualProvider,
	}

	// Events go through Redis when it is configured, otherwise to the log
	var notifier portsnotif.Notifier
	if cfg.RedisAddr != "" {
		hookService := notifications.NewHookService(cfg, logger)
		go hookService.Start(context.Background())
		notifier = hookService
	} else {
		notifier = notifications.NewLogNotifier(logger)
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, providerRegistry, notifier)

	// Make the configured bootstrap key usable before the first request lands
	if err := serviceContainer.APIToken.EnsureBootstrapToken(context.Background(), cfg.BootstrapAPIKey); err != nil {
		logger.Error("Failed to ensure bootstrap API token", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()

	// Global middleware (logging, recovery, metrics, analytics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.MetricsMiddleware(),
		middleware.PosthogMiddleware(posthogClient),
	)

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, manualProvider)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
