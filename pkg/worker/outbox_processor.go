package worker

import (
	"context"
	"time"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/messaging"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	Channel      string
	// Retention bounds how long PROCESSED rows are kept before the
	// cleanup pass deletes them. Zero disables cleanup.
	Retention       time.Duration
	CleanupInterval time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:       50,
		PollInterval:    5 * time.Second,
		MaxRetries:      3,
		Channel:         "clinic.events",
		Retention:       7 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// OutboxProcessor drains pending outbox rows to the message broker.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.Channel == "" {
		config.Channel = "clinic.events"
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  log,
		metrics: m,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	var cleanup <-chan time.Time
	if p.config.Retention > 0 {
		interval := p.config.CleanupInterval
		if interval <= 0 {
			interval = time.Hour
		}
		cleanupTicker := time.NewTicker(interval)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup:
			if err := p.cleanupProcessed(ctx); err != nil {
				p.logger.Error(err, "failed to clean up outbox")
			}
		}
	}
}

// cleanupProcessed deletes PROCESSED rows older than the retention window.
func (p *OutboxProcessor) cleanupProcessed(ctx context.Context) error {
	deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		p.logger.Zerolog().Info().Int64("deleted", deleted).Msg("pruned processed outbox events")
	}
	return nil
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		start := time.Now()
		err := p.broker.Publish(ctx, p.config.Channel, messaging.Message{
			Type:    event.EventType,
			Payload: event.Payload,
		})
		if p.metrics != nil {
			p.metrics.OutboxProcessingLatency.Observe(time.Since(start).Seconds())
		}

		if err != nil {
			msg := err.Error()
			status := model.OutboxStatusFailed
			// Events past the retry budget stay FAILED; anything younger
			// goes back to PENDING for the next batch.
			if event.RetryCount+1 < p.config.MaxRetries {
				status = model.OutboxStatusPending
			}
			if uerr := p.repo.UpdateStatus(ctx, event.ID, status, &msg); uerr != nil {
				p.logger.Error(uerr, "failed to mark outbox event failed")
			}
			if p.metrics != nil {
				p.metrics.OutboxEventsFailed.Inc()
			}
			continue
		}

		if uerr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); uerr != nil {
			p.logger.Error(uerr, "failed to mark outbox event processed")
			continue
		}
		if p.metrics != nil {
			p.metrics.OutboxEventsProcessed.Inc()
		}
	}

	return nil
}
