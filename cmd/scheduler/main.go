package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/segyhp/fiducialend/internal/cache"
	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/database"
	"github.com/segyhp/fiducialend/internal/events"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/repository"
	"github.com/segyhp/fiducialend/internal/scheduler"
	"github.com/segyhp/fiducialend/internal/service"
	"github.com/segyhp/fiducialend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.Info("starting loan scheduler")

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// The loan list cache is best effort here; without Redis the sweep still runs.
	var loanCache service.LoanCache
	if redisClient, err := cache.OpenRedis(ctx, cfg.Redis); err != nil {
		slog.Warn("redis unavailable, loan cache will not be invalidated", "error", err)
	} else {
		defer redisClient.Close()
		loanCache = cache.NewLoanListCache(redisClient, cfg.Cache.LoanListTTL)
	}

	var publisher events.Publisher = events.NewLogPublisher(slog.Default())
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	loans := service.NewLoanService(repository.NewLoanRepository(db), loanCache, publisher, metrics.New(), cfg)

	s, err := scheduler.New(loans, cfg.Scheduler, cfg.GetSchedulerLocation())
	if err != nil {
		slog.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	s.Start()
	slog.Info("scheduler started",
		"overdue_spec", cfg.Scheduler.OverdueSpec,
		"reminder_spec", cfg.Scheduler.ReminderSpec,
		"timezone", cfg.Scheduler.Timezone,
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	<-s.Stop().Done()
	slog.Info("scheduler stopped")
}
