package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockArchiveService for testing
type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) ArchiveRecord(ctx context.Context, record *ledger.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockDLQProducer for testing
type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) PublishToDLQ(ctx context.Context, originalKey string, originalValue []byte, reason string) error {
	args := m.Called(ctx, originalKey, originalValue, reason)
	return args.Error(0)
}

func (m *MockDLQProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodeRecord(t *testing.T, record *ledger.Record) []byte {
	t.Helper()
	value, err := json.Marshal(record)
	require.NoError(t, err)
	return value
}

func TestRecordHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidRecordIsArchived", func(t *testing.T) {
		archiveService := &MockArchiveService{}
		handler := NewRecordHandler(newTestLogger(), archiveService, nil)

		record := ledger.NewRecord("1001", ledger.KindDeposit, 500, "corr-1")
		value := encodeRecord(t, record)

		archiveService.On("ArchiveRecord", mock.Anything, mock.MatchedBy(func(r *ledger.Record) bool {
			return r.RecordID == record.RecordID && r.Amount == record.Amount
		})).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte(record.AccountNumber), value)

		assert.NoError(t, err)
		archiveService.AssertExpectations(t)
	})

	t.Run("ArchiveFailureIsReturned", func(t *testing.T) {
		archiveService := &MockArchiveService{}
		handler := NewRecordHandler(newTestLogger(), archiveService, nil)

		record := ledger.NewRecord("1001", ledger.KindWithdrawal, 300, "corr-1")
		storageErr := errors.New("mongo unavailable")

		archiveService.On("ArchiveRecord", mock.Anything, mock.Anything).Return(storageErr).Once()

		err := handler.HandleMessage(ctx, []byte(record.AccountNumber), encodeRecord(t, record))

		assert.Error(t, err, "Storage failures must not commit the offset")
		assert.ErrorIs(t, err, storageErr)
	})

	t.Run("PoisonMessageGoesToDLQ", func(t *testing.T) {
		archiveService := &MockArchiveService{}
		producer := &MockDLQProducer{}
		handler := NewRecordHandler(newTestLogger(), archiveService, producer)

		poison := []byte("{not valid json")

		producer.On("PublishToDLQ", mock.Anything, "1001", poison, mock.AnythingOfType("string")).
			Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte("1001"), poison)

		assert.NoError(t, err, "A dead-lettered message should commit the offset")
		producer.AssertExpectations(t)
		archiveService.AssertNotCalled(t, "ArchiveRecord", mock.Anything, mock.Anything)
	})

	t.Run("PoisonMessageWithDLQFailureIsRetried", func(t *testing.T) {
		archiveService := &MockArchiveService{}
		producer := &MockDLQProducer{}
		handler := NewRecordHandler(newTestLogger(), archiveService, producer)

		poison := []byte("{not valid json")

		producer.On("PublishToDLQ", mock.Anything, "1001", poison, mock.AnythingOfType("string")).
			Return(errors.New("kafka unavailable")).Once()

		err := handler.HandleMessage(ctx, []byte("1001"), poison)

		assert.Error(t, err, "If the DLQ is down the message must stay on the topic")
		producer.AssertExpectations(t)
	})

	t.Run("PoisonMessageWithoutDLQIsRetried", func(t *testing.T) {
		archiveService := &MockArchiveService{}
		handler := NewRecordHandler(newTestLogger(), archiveService, nil)

		err := handler.HandleMessage(ctx, []byte("1001"), []byte("{not valid json"))

		assert.Error(t, err)
		archiveService.AssertNotCalled(t, "ArchiveRecord", mock.Anything, mock.Anything)
	})
}
