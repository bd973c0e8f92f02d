package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/remote-account-ledger/internal/platform/persistence"
)

// TransactionLogRepository implements the ledger.Log interface for
// PostgreSQL. The transaction_log table is append-only: rows are never
// updated or deleted, and insertion order is chronological order.
type TransactionLogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionLogRepository creates a new PostgreSQL transaction log
func NewTransactionLogRepository(logger *slog.Logger, db persistence.DB) ledger.Log {
	return &TransactionLogRepository{
		querier: db,
		logger:  logger,
	}
}

// WithTx wraps the log with a transaction so the append commits
// atomically with the balance change it describes
func (r *TransactionLogRepository) WithTx(tx pgx.Tx) ledger.Log {
	return &TransactionLogRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts a transaction record. The record is durable once the
// enclosing transaction commits.
func (r *TransactionLogRepository) Append(ctx context.Context, record *ledger.Record) error {
	query := `
		INSERT INTO transaction_log (record_id, account_number, kind, amount, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		record.RecordID,
		record.AccountNumber,
		record.Kind,
		record.Amount,
		record.CorrelationID,
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ledger.ErrDuplicateRecord{RecordID: record.RecordID}
		}
		r.logger.Error("Failed to append transaction record",
			"record_id", record.RecordID.String(),
			"account_number", record.AccountNumber,
			"error", err)
		return fmt.Errorf("failed to append transaction record: %w", err)
	}

	return nil
}
