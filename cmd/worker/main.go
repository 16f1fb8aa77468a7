package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-companies/internal/database"
	"github.com/hugh/go-companies/internal/tasks"
	"github.com/hugh/go-companies/pkg/config"
	"github.com/hugh/go-companies/pkg/queue"
	"github.com/hugh/go-companies/pkg/util"
	"github.com/joho/godotenv"
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
	logger := util.NewLogger(cfg.Server.Env, "companies-worker")
	slog.SetDefault(logger)

	logger.Info("starting companies worker", "concurrency", cfg.Worker.Concurrency)

	if _, err := util.ParseSchedule(cfg.Audit.PruneCron); err != nil {
		logger.Error("invalid AUDIT_PRUNE_CRON", "error", err)
		os.Exit(1)
	}

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

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)

	// Create task handler
	handler := tasks.NewHandler(db, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic audit pruning
	pruneTask, err := tasks.NewAuditPruneTask(cfg.Audit.RetentionDays)
	if err != nil {
		logger.Error("failed to build prune task", "error", err)
		os.Exit(1)
	}
	scheduler := queue.NewScheduler(&cfg.Redis, logger)
	entryID, err := scheduler.Register(cfg.Audit.PruneCron, pruneTask)
	if err != nil {
		logger.Error("failed to schedule audit pruning", "error", err)
		os.Exit(1)
	}
	runs, _ := util.UpcomingRuns(cfg.Audit.PruneCron, time.Now(), 1)
	logger.Info("audit pruning scheduled",
		"entry_id", entryID,
		"cron", cfg.Audit.PruneCron,
		"retention_days", cfg.Audit.RetentionDays,
		"next_run", runs,
	)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
