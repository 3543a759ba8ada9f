package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/serviceloop/marketplace-api/internal/repository/postgres"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/messaging/redis"
	"github.com/serviceloop/marketplace-api/pkg/metrics"
	"github.com/serviceloop/marketplace-api/pkg/worker"
)

// Config is read from the environment; the worker deploys independently of
// the API and carries no config file.
type Config struct {
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL       string        `envconfig:"REDIS_URL" required:"true"`
	HealthAddr     string        `envconfig:"HEALTH_ADDR" default:":8081"`
	BatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval   time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts  int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay     time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	Retention      time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`
	RedisPoolSize  int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   cfg.RetryAttempts,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.BatchSize,
			PollInterval:  cfg.PollInterval,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			Retention:     cfg.Retention,
		},
		appLogger,
		metrics.NewMetrics("marketplace", "worker"),
	)

	startHealthServer(cfg.HealthAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down worker...")
		cancel()
	}()

	processor.Start(ctx)
}

func startHealthServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}
