package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/remote-account-ledger/internal/archiver/service"
	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/remote-account-ledger/internal/platform/messaging/producers"
)

// RecordHandler handles incoming transaction record messages from Kafka
type RecordHandler struct {
	archiveService service.ArchiveService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewRecordHandler creates a new handler
func NewRecordHandler(
	logger *slog.Logger,
	archiveService service.ArchiveService,
	producer producers.DeadLetterPublisher,
) *RecordHandler {
	return &RecordHandler{
		archiveService: archiveService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage processes Kafka messages
func (h *RecordHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var record ledger.Record
	if err := json.Unmarshal(value, &record); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal transaction record from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if record.CorrelationID != "" {
		logger = h.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Received transaction record for archival",
		"record_id", record.RecordID.String(),
		"account_number", record.AccountNumber,
		"kind", string(record.Kind),
		"amount", record.Amount,
	)

	if err := h.archiveService.ArchiveRecord(ctx, &record); err != nil {
		logger.Error("Failed to archive record",
			"record_id", record.RecordID.String(),
			"account_number", record.AccountNumber,
			"error", err,
		)
		return fmt.Errorf("archiving record %s failed: %w", record.RecordID.String(), err)
	}

	logger.Info("Successfully archived record", "record_id", record.RecordID.String())
	return nil // Success, commit offset
}
