package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/fiducialend/internal/auth"
	"github.com/segyhp/fiducialend/internal/cache"
	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/database"
	"github.com/segyhp/fiducialend/internal/events"
	"github.com/segyhp/fiducialend/internal/handler"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/repository"
	"github.com/segyhp/fiducialend/internal/service"
	"github.com/segyhp/fiducialend/internal/tips"
	"github.com/segyhp/fiducialend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.Driver, cfg.Database.MigrationURL()); err != nil {
			fatal("failed to run migrations", err)
		}
	}

	// Initialize database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		fatal("failed to initialize database", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := cache.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		fatal("failed to connect to redis", err)
	}
	defer redisClient.Close()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.SessionTTL,
	})
	if err != nil {
		fatal("failed to initialize auth", err)
	}

	if cfg.IsProduction() && !cfg.Auth.CookieSecure {
		slog.Warn("session cookie is not marked Secure in production")
	}

	m := metrics.New()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	loanCache := cache.NewLoanListCache(redisClient, cfg.Cache.LoanListTTL)

	// Initialize services
	loanService := service.NewLoanService(loanRepo, loanCache, publisher, m, cfg)
	paymentService := service.NewPaymentService(loanRepo, paymentRepo, loanCache, publisher, m, cfg)
	transactionService := service.NewTransactionService(transactionRepo)
	contentService := service.NewContentService(repository.NewArticleRepository(db), repository.NewOfferRepository(db))
	profileService := service.NewProfileService(profileRepo)
	tipsService := service.NewTipsService(tips.NewGeminiClient(cfg.Tips), profileRepo, loanRepo, paymentRepo, m, cfg)
	dashboardService := service.NewDashboardService(loanService, paymentRepo, transactionService)

	router := handler.NewRouter(handler.RouterConfig{
		Health: handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout),
		Sessions: handler.NewSessionHandler(jwtService, handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			MaxAge: int(cfg.Auth.SessionTTL.Seconds()),
			Secure: cfg.Auth.CookieSecure,
		}),
		Loans:          handler.NewLoanHandler(loanService, paymentService),
		Account:        handler.NewAccountHandler(transactionService, contentService, profileService, tipsService, dashboardService),
		Tokens:         jwtService,
		CookieName:     cfg.Auth.CookieName,
		Redis:          redisClient,
		IdempotencyTTL: cfg.Cache.IdempotencyTTL,
		Metrics:        m,
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed to start", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Kafka.Enabled {
		slog.Info("publishing loan events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	return events.NewLogPublisher(slog.Default())
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
