package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/serviceloop/marketplace-api/internal/config"
	"github.com/serviceloop/marketplace-api/internal/email"
	"github.com/serviceloop/marketplace-api/internal/handler"
	authHandler "github.com/serviceloop/marketplace-api/internal/handler/auth"
	bookingHandler "github.com/serviceloop/marketplace-api/internal/handler/booking"
	catalogHandler "github.com/serviceloop/marketplace-api/internal/handler/catalog"
	listingHandler "github.com/serviceloop/marketplace-api/internal/handler/listing"
	providerHandler "github.com/serviceloop/marketplace-api/internal/handler/provider"
	"github.com/serviceloop/marketplace-api/internal/middleware"
	"github.com/serviceloop/marketplace-api/internal/notifier"
	"github.com/serviceloop/marketplace-api/internal/repository/postgres"
	"github.com/serviceloop/marketplace-api/internal/router"
	authService "github.com/serviceloop/marketplace-api/internal/service/auth"
	"github.com/serviceloop/marketplace-api/internal/service/availability"
	bookingService "github.com/serviceloop/marketplace-api/internal/service/booking"
	catalogService "github.com/serviceloop/marketplace-api/internal/service/catalog"
	listingService "github.com/serviceloop/marketplace-api/internal/service/listing"
	providerService "github.com/serviceloop/marketplace-api/internal/service/provider"
	reviewService "github.com/serviceloop/marketplace-api/internal/service/review"
	"github.com/serviceloop/marketplace-api/pkg/auth"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/messaging/redis"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
	"github.com/serviceloop/marketplace-api/pkg/security"
	"github.com/serviceloop/marketplace-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	listingRepo := postgres.NewListingRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	appMetrics := metrics.NewMetrics("marketplace", "api")

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	hasher := security.NewBcryptHasher(0)
	emailSvc := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, appLogger)

	authSvc := authService.NewService(userRepo, providerRepo, jwtSvc, hasher, emailSvc, appLogger)
	resolver := availability.NewService(providerRepo, bookingRepo)
	catalogSvc := catalogService.NewService(serviceRepo, appMetrics)
	providerSvc := providerService.NewService(providerRepo)
	bookingSvc := bookingService.NewService(bookingRepo, providerRepo, serviceRepo, resolver, appMetrics)
	reviewSvc := reviewService.NewService(reviewRepo, bookingRepo, appMetrics)
	listingSvc := listingService.NewService(listingRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler(db)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		catalogHandler.NewHandler(catalogSvc, resolver),
		providerHandler.NewHandler(providerSvc, reviewSvc),
		bookingHandler.NewHandler(bookingSvc, reviewSvc),
		listingHandler.NewHandler(listingSvc),
		h,
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MetricsPrefix: "marketplace_api",
		},
	)
	r.Setup()

	// Message broker plus the in-process outbox dispatcher and the email
	// notification consumer.
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Outbox.RetryAttempts,
		RetryBackoff: 100 * time.Millisecond,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    time.Duration(cfg.Outbox.RetryDelaySeconds) * time.Second,
			Retention:     time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
		},
		appLogger,
		appMetrics,
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go processor.Start(workerCtx)

	notifications := notifier.New(broker, userRepo, providerRepo, emailSvc, appLogger)
	if err := notifications.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start notifier")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
