package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionLogRepository_Append(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionLogRepository{querier: mock, logger: logger}
	record := ledger.NewRecord("1001", ledger.KindDeposit, 500, uuid.New().String())

	query := `
		INSERT INTO transaction_log \(record_id, account_number, kind, amount, correlation_id, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(record.RecordID, record.AccountNumber, record.Kind, record.Amount, record.CorrelationID, record.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Append(ctx, record)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate record", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(record.RecordID, record.AccountNumber, record.Kind, record.Amount, record.CorrelationID, record.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Append(ctx, record)
		assert.Error(t, err)
		var dupErr ledger.ErrDuplicateRecord
		assert.ErrorAs(t, err, &dupErr)
		assert.Equal(t, record.RecordID, dupErr.RecordID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectExec(query).
			WithArgs(record.RecordID, record.AccountNumber, record.Kind, record.Amount, record.CorrelationID, record.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Append(ctx, record)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to append transaction record")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
