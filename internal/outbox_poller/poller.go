// Package outbox_poller drains the transactional outbox into the audit
// stream. Records reach the outbox in the same database transaction as
// the balance change they describe, so everything the poller publishes
// is already durable and committed.
package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remote-account-ledger/internal/config"
	"github.com/remote-account-ledger/internal/domain/outbox"
	"github.com/remote-account-ledger/internal/platform/messaging/producers"
)

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        producers.MessagePublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until the context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// processPendingMessages publishes one batch in FIFO order. Failures are
// retried on later ticks until the attempt budget is exhausted, then the
// message is parked as FAILED_TO_PUBLISH.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		// Keying by account number preserves per-account ordering in
		// the audit stream
		err := p.publisher.Publish(ctx, msg.AccountNumber, msg.Payload)
		if err != nil {
			p.logger.Error("Failed to publish outbox message",
				"outbox_id", msg.ID, "record_id", msg.RecordID, "current_attempts", msg.Attempts, "error", err,
			)

			if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				p.logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
				continue
			}

			if msg.Attempts+1 >= p.maxRetryAttempts {
				p.logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
					"outbox_id", msg.ID, "record_id", msg.RecordID, "attempts_made", msg.Attempts+1,
				)
				if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusFailedToPublish); errUpdate != nil {
					p.logger.Error("Failed to update outbox status after max retries", "outbox_id", msg.ID, "error", errUpdate)
				}
			}
			continue
		}

		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusProcessed); err != nil {
			// The publish succeeded; redelivery is handled by the
			// archiver's idempotent insert
			p.logger.Error("Published but failed to mark outbox message as PROCESSED", "outbox_id", msg.ID, "error", err)
			continue
		}

		p.logger.Debug("Outbox message published", "outbox_id", msg.ID, "record_id", msg.RecordID)
	}
	return nil
}
