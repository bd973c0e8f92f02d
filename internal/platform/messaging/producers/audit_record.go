package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remote-account-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// AuditRecordProducer publishes committed transaction records to the
// audit topic. Payloads arrive pre-marshaled from the outbox, so the
// producer never re-encodes them.
type AuditRecordProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewAuditRecordProducer creates the audit producer and ensures the
// topic exists
func NewAuditRecordProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AuditRecordProducer, error) {
	if cfg.AuditTopic == "" {
		return nil, fmt.Errorf("kafka audit topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for audit producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.AuditTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure audit topic %s exists: %w", cfg.AuditTopic, err)
	}

	// Records are keyed by account number so per-account ordering
	// survives partitioning. RequireAll because the outbox marks a
	// message processed as soon as the publish returns.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &AuditRecordProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.AuditTopic,
	}, nil
}

func (p *AuditRecordProducer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish audit record",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish audit record to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published audit record",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *AuditRecordProducer) Close() error {
	p.logger.Info("Closing audit record producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close audit kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
