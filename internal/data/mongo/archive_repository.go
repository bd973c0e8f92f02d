// Package mongo provides the MongoDB implementation of the transaction
// history archive. The archive is fed asynchronously from the audit
// stream and serves the reporting API; it is never part of a ledger
// operation's atomic scope.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/remote-account-ledger/internal/domain/ledger"
)

const (
	// ArchiveCollectionName is the name of the record collection in MongoDB
	ArchiveCollectionName = "ledger_records"
)

// ArchiveRepository implements the ledger.Archive interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) ledger.Archive {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a transaction record after checking for duplicates.
// Returns ErrDuplicateRecord if a record with the same ID exists, which
// makes archiving idempotent under stream redelivery.
func (r *ArchiveRepository) Insert(ctx context.Context, record *ledger.Record) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByRecordID(ctx, record.RecordID)
	if err != nil && !errors.Is(err, ledger.ErrRecordNotFound{}) {
		r.logger.Error("Failed to check for existing archived record",
			"record_id", record.RecordID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archived record: %w", err)
	}

	if existing != nil {
		return ledger.ErrDuplicateRecord{RecordID: record.RecordID}
	}

	_, err = collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to archive transaction record",
			"record_id", record.RecordID.String(),
			"error", err)
		return fmt.Errorf("failed to archive transaction record: %w", err)
	}

	return nil
}

// GetByRecordID retrieves an archived record by its ID.
// Returns ErrRecordNotFound if no such record exists.
func (r *ArchiveRepository) GetByRecordID(ctx context.Context, recordID uuid.UUID) (*ledger.Record, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"record_id": recordID}
	var record ledger.Record
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrRecordNotFound{RecordID: recordID}
		}
		r.logger.Error("Failed to get archived record",
			"record_id", recordID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived record: %w", err)
	}

	return &record, nil
}

// GetByAccountNumber retrieves paginated records for an account, newest
// first
func (r *ArchiveRepository) GetByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]*ledger.Record, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"account_number": accountNumber}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived records",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to get archived records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*ledger.Record
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode archived records",
			"account_number", accountNumber,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived records: %w", err)
	}

	return records, nil
}

// CountByAccountNumber counts the archived records for an account
func (r *ArchiveRepository) CountByAccountNumber(ctx context.Context, accountNumber string) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"account_number": accountNumber}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived records",
			"account_number", accountNumber,
			"error", err)
		return 0, fmt.Errorf("failed to count archived records: %w", err)
	}

	return count, nil
}
