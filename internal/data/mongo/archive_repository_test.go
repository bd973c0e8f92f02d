package mongo

import (
	"context"
	"errors"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/remote-account-ledger/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Insert(ctx context.Context, record *ledger.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockArchiveRepository) GetByRecordID(ctx context.Context, recordID uuid.UUID) (*ledger.Record, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

func (m *MockArchiveRepository) GetByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]*ledger.Record, error) {
	args := m.Called(ctx, accountNumber, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Record), args.Error(1)
}

func (m *MockArchiveRepository) CountByAccountNumber(ctx context.Context, accountNumber string) (int64, error) {
	args := m.Called(ctx, accountNumber)
	return args.Get(0).(int64), args.Error(1)
}

func TestNewArchiveRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewArchiveRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &ArchiveRepository{}, repo)
}

func TestArchiveRepository_Insert(t *testing.T) {
	record := ledger.NewRecord("1001", ledger.KindDeposit, 500, "corr1")

	tests := []struct {
		name          string
		setupMocks    func(mockRepo *MockArchiveRepository)
		expectedError error
	}{
		{
			name: "successful insert",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("Insert", mock.Anything, record).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "duplicate record",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("Insert", mock.Anything, record).Return(ledger.ErrDuplicateRecord{RecordID: record.RecordID})
			},
			expectedError: ledger.ErrDuplicateRecord{RecordID: record.RecordID},
		},
		{
			name: "database error",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("Insert", mock.Anything, record).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockArchiveRepository{}
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			err := mockRepo.Insert(ctx, record)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestArchiveRepository_GetByRecordID(t *testing.T) {
	record := ledger.NewRecord("1001", ledger.KindWithdrawal, 300, "corr1")

	tests := []struct {
		name           string
		setupMocks     func(mockRepo *MockArchiveRepository)
		expectedRecord *ledger.Record
		expectedError  error
	}{
		{
			name: "record found",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByRecordID", mock.Anything, record.RecordID).Return(record, nil)
			},
			expectedRecord: record,
			expectedError:  nil,
		},
		{
			name: "record not found",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByRecordID", mock.Anything, record.RecordID).Return(nil, ledger.ErrRecordNotFound{RecordID: record.RecordID})
			},
			expectedRecord: nil,
			expectedError:  ledger.ErrRecordNotFound{RecordID: record.RecordID},
		},
		{
			name: "database error",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByRecordID", mock.Anything, record.RecordID).Return(nil, errors.New("db error"))
			},
			expectedRecord: nil,
			expectedError:  errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockArchiveRepository{}
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			result, err := mockRepo.GetByRecordID(ctx, record.RecordID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedRecord, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestArchiveRepository_GetByAccountNumber(t *testing.T) {
	records := []*ledger.Record{
		ledger.NewRecord("1001", ledger.KindDeposit, 500, "corr1"),
		ledger.NewRecord("1001", ledger.KindTransferOut, 200, "corr2"),
	}

	tests := []struct {
		name            string
		setupMocks      func(mockRepo *MockArchiveRepository)
		expectedRecords []*ledger.Record
		expectedError   error
	}{
		{
			name: "records found",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByAccountNumber", mock.Anything, "1001", 10, 0).Return(records, nil)
			},
			expectedRecords: records,
			expectedError:   nil,
		},
		{
			name: "empty history",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByAccountNumber", mock.Anything, "1001", 10, 0).Return([]*ledger.Record{}, nil)
			},
			expectedRecords: []*ledger.Record{},
			expectedError:   nil,
		},
		{
			name: "database error",
			setupMocks: func(mockRepo *MockArchiveRepository) {
				mockRepo.On("GetByAccountNumber", mock.Anything, "1001", 10, 0).Return(nil, errors.New("db error"))
			},
			expectedRecords: nil,
			expectedError:   errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockArchiveRepository{}
			tt.setupMocks(mockRepo)

			ctx := context.Background()
			result, err := mockRepo.GetByAccountNumber(ctx, "1001", 10, 0)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedRecords, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
