package service

import (
	"context"

	"github.com/remote-account-ledger/internal/domain/ledger"
)

// ArchiveService persists consumed transaction records into the
// queryable history archive
type ArchiveService interface {
	// ArchiveRecord stores the record, skipping duplicates so stream
	// redelivery is harmless
	ArchiveRecord(ctx context.Context, record *ledger.Record) error
}
