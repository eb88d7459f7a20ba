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

	"github.com/theunits/units/config"
	"github.com/theunits/units/internal/api"
	"github.com/theunits/units/internal/api/handlers"
	"github.com/theunits/units/internal/core/auth"
	"github.com/theunits/units/internal/core/lease"
	"github.com/theunits/units/internal/core/signature"
	"github.com/theunits/units/internal/core/validation"
	"github.com/theunits/units/internal/events"
	"github.com/theunits/units/internal/provider/bluemoon"
	"github.com/theunits/units/internal/storage/cache"
	"github.com/theunits/units/internal/storage/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fatal(logger, "failed to load configuration", err)
	}

	// Validate critical configuration
	if cfg.JWT.Secret == "" {
		fatal(logger, "JWT_SECRET environment variable is required", nil)
	}
	if cfg.Provider.BaseURL == "" {
		fatal(logger, "PROVIDER_API_URL environment variable is required", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewClient(&cfg.Database)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fatal(logger, "failed to migrate database", err)
	}
	logger.Info("connected to database", "driver", db.Dialect.Name())

	// Snapshot dedupe: Redis when configured, otherwise process memory
	var dedupe signature.Deduper
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer rdb.Close()
		dedupe = cache.NewRedisDeduper(rdb, cfg.Notification.DedupTTL)
	} else {
		dedupe = cache.NewMemoryDeduper(cfg.Notification.DedupTTL)
	}

	// Status change events: Kafka when brokers are configured, otherwise the log
	var publisher interface {
		signature.Publisher
		Close() error
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			fatal(logger, "failed to create kafka publisher", err)
		}
	} else {
		publisher = events.NewLoggingPublisher(logger)
	}
	defer publisher.Close()

	validator, err := validation.NewValidator()
	if err != nil {
		fatal(logger, "failed to compile request schemas", err)
	}

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	leaseRepo := lease.NewRepository(db)

	// Initialize services
	authService := auth.NewService(authRepo, &cfg.JWT)
	provider := bluemoon.New(&cfg.Provider, logger)
	synchronizer := signature.NewSynchronizer(leaseRepo, dedupe, publisher, logger)
	leaseService := lease.NewService(leaseRepo, synchronizer, provider, validator, cfg.Server.PublicURL+"/api/notifications", logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	leaseHandler := handlers.NewLeaseHandler(leaseService, logger)
	esignatureHandler := handlers.NewEsignatureHandler(leaseService, logger)

	// Setup router
	router := api.NewRouter(
		authService,
		authHandler,
		leaseHandler,
		esignatureHandler,
		api.RouterConfig{
			AllowedOrigins:     cfg.Server.AllowedOrigins,
			NotificationSecret: cfg.Notification.Secret,
		},
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(cfg.Server.Mode),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "failed to start server", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
