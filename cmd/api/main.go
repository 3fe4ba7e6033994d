package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/ticket-insights/internal/adapters/primary/http"
	mw "github.com/lorrc/ticket-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-insights/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-insights/internal/adapters/secondary/spreadsheet"
	"github.com/lorrc/ticket-insights/internal/auth"
	"github.com/lorrc/ticket-insights/internal/config"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/core/services"
	"github.com/lorrc/ticket-insights/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	profile, err := config.LoadProfile(cfg.Analysis.ProfilePath)
	if err != nil {
		logger.Error("failed to load analysis profile", "error", err)
		os.Exit(1)
	}
	logger.Info("analysis profile loaded", "profile", profile.Name)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Upload store: Postgres when configured, otherwise process memory
	uploads, storeName, closeStore, err := openUploadStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open upload store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// 4. Initialize Security & Real-time Components
	var tokenManager *auth.TokenManager
	if cfg.JWT.Enabled() {
		tokenManager = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.App.Name)
	} else {
		logger.Warn("JWT_SECRET not set, API authentication is disabled")
	}
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// 5. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var uploadLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		uploadLimit = mw.NewRateLimiter(ctx,
			mw.UploadRateLimiterConfig(cfg.RateLimit.UploadRPS, cfg.RateLimit.UploadBurst),
		).Middleware
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	csvEncoder := spreadsheet.NewCSVEncoder()
	decoders := map[domain.Format]ports.TableDecoder{
		domain.FormatXLSX: spreadsheet.NewXLSXDecoder(),
		domain.FormatCSV:  spreadsheet.NewCSVDecoder(),
	}

	dashboardService := services.NewDashboardService(profile, csvEncoder, hub, logger)
	datasetService := services.NewDatasetService(uploads, decoders, dashboardService, hub, services.DatasetServiceConfig{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		CacheSize:      cfg.Upload.CacheSize,
	}, logger)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	// 7. Setup Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Health:         httpAdapter.NewHealthHandler(uploads, storeName, cfg.App.Version).WithClientCounter(hub),
		Datasets:       httpAdapter.NewDatasetHandler(datasetService, dashboardService, errorHandler, cfg.Upload.MaxBytes, uploadLimit, logger),
		Dashboards:     httpAdapter.NewDashboardHandler(datasetService, dashboardService, errorHandler, csvEncoder.ContentType(), logger),
		WebSocket:      httpAdapter.NewWebSocketHandler(hub, tokenManager, errorHandler, cfg, logger),
		ErrorHandler:   errorHandler,
		TokenManager:   tokenManager,
		RateLimiter:    generalRateLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		Logger:         logger,
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

// openUploadStore returns the Postgres store when DATABASE_URL is set, running
// migrations first if enabled, and the in-memory store otherwise.
func openUploadStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.UploadRepository, string, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Info("DATABASE_URL not set, keeping uploads in memory")
		return memory.NewUploadRepository(), "memory", func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return nil, "", nil, err
		}
		logger.Info("database migrations applied", "path", cfg.Database.MigrationsPath)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, "", nil, err
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, "", nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, "", nil, err
	}
	logger.Info("database connection established")

	return postgres.NewUploadRepository(pool), "postgres", pool.Close, nil
}
