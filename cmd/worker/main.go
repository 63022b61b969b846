package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/messaging/redis"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{Level: level, Output: os.Stdout})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:       cfg.Outbox.BatchSize,
			PollInterval:    cfg.Outbox.PollInterval,
			MaxRetries:      cfg.Outbox.MaxRetries,
			Channel:         cfg.Outbox.Channel,
			Retention:       cfg.Outbox.Retention,
			CleanupInterval: cfg.Outbox.CleanupInterval,
		},
		log,
		metrics.NewMetrics("clinic", "worker"),
	)

	setupHealthCheck(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutting down worker")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Error(err, "health check server failed")
		}
	}()
}
