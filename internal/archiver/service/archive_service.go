// Package service implements the archive side of the audit stream:
// consumed transaction records are written into the MongoDB history
// archive that backs the reporting API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/remote-account-ledger/internal/domain/ledger"
)

type ArchiveServiceImpl struct {
	archive ledger.Archive
	logger  *slog.Logger
}

func NewArchiveService(logger *slog.Logger, archive ledger.Archive) ArchiveService {
	return &ArchiveServiceImpl{
		archive: archive,
		logger:  logger,
	}
}

// ArchiveRecord stores one transaction record. Records are immutable and
// uniquely identified, so a duplicate insert means the stream redelivered
// an already-archived record and is treated as success.
func (s *ArchiveServiceImpl) ArchiveRecord(ctx context.Context, record *ledger.Record) error {
	logger := s.logger
	if record.CorrelationID != "" {
		logger = s.logger.With("correlation_id", record.CorrelationID)
	}

	if !record.Kind.Valid() {
		return fmt.Errorf("unknown record kind %q for record %s", record.Kind, record.RecordID)
	}

	err := s.archive.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateRecord{}) {
			logger.Info("Record already archived, skipping",
				"record_id", record.RecordID.String(),
				"account_number", record.AccountNumber,
			)
			return nil
		}
		return fmt.Errorf("failed to archive record %s: %w", record.RecordID, err)
	}

	logger.Info("Record archived",
		"record_id", record.RecordID.String(),
		"account_number", record.AccountNumber,
		"kind", string(record.Kind),
	)
	return nil
}
