package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hugh/go-companies/internal/api"
	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/database"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/store"
	"github.com/hugh/go-companies/internal/tasks"
	"github.com/hugh/go-companies/pkg/config"
	"github.com/hugh/go-companies/pkg/crypto"
	"github.com/hugh/go-companies/pkg/queue"
	"github.com/hugh/go-companies/pkg/util"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env, "companies-api")
	slog.SetDefault(logger)

	logger.Info("starting companies server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"events", cfg.Events.Backend,
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	publisher := newPublisher(cfg, redisClient != nil, logger)

	// Telephone numbers are sealed at rest when a key is configured
	cipher, err := crypto.NewFieldCipher(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create field cipher", "error", err)
		os.Exit(1)
	}
	if !cipher.Enabled() {
		logger.Warn("ENCRYPTION_KEY not set, telephone numbers are stored in plaintext")
	}

	stores := store.New(db, cipher)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(stores.Users, jwtService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:              db,
		Redis:           redisClient,
		Logger:          logger,
		JWTService:      jwtService,
		AuthService:     authService,
		Stores:          stores,
		Events:          publisher,
		MetricsRegistry: registry,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		RateLimitReqs:   cfg.RateLimit.Requests,
		RateLimitWindow: cfg.RateLimit.Window(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	router.Close()

	if err := publisher.Close(); err != nil {
		logger.Error("failed to close event publisher", "error", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}

// newPublisher picks the event backend. asynq needs redis; without it events
// are dropped.
func newPublisher(cfg *config.Config, redisUp bool, logger *slog.Logger) events.Publisher {
	switch cfg.Events.Backend {
	case config.EventsKafka:
		logger.Info("publishing events to kafka", "brokers", cfg.Events.KafkaBrokers, "topic", cfg.Events.KafkaTopic)
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger)
	case config.EventsAsynq:
		if !redisUp {
			logger.Warn("redis unavailable, domain events are disabled")
			return events.Noop{}
		}
		return tasks.NewEventPublisher(queue.NewClient(&cfg.Redis), logger)
	default:
		return events.Noop{}
	}
}
